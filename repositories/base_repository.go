package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ortak repository hataları. Servis katmanı bunları kendi hata
// taksonomisine çevirir.
var (
	ErrNotFound  = errors.New("kayıt bulunamadı")
	ErrDuplicate = errors.New("kayıt zaten mevcut")
)

// dbWithContext bağlantıyı isteğin context'ine bağlar. Transaction'lar
// context üzerinden değil, NewXRepositoryTx kurucularıyla taşınır.
func dbWithContext(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx)
}

// lockForUpdate satır kilidini destekleyen lehçelerde SELECT ... FOR UPDATE
// uygular. sqlite yazmayı zaten tek yazara serileştirdiği için kilit cümlesi
// eklenmez.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// IBaseRepository standart CRUD işlemlerinin generik arayüzüdür.
type IBaseRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	FindByID(ctx context.Context, id uint) (*T, error)
	CountAll(ctx context.Context) (int64, error)
	SetAllowedSortColumns(columns []string)
	OrderColumn(requested string) string
}

// BaseRepository IBaseRepository'nin GORM uygulamasıdır.
type BaseRepository[T any] struct {
	db             *gorm.DB
	allowedSorting map[string]struct{}
	defaultColumn  string
}

// NewBaseRepository verilen bağlantı için generik repository oluşturur.
func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{
		db:             db,
		allowedSorting: map[string]struct{}{},
		defaultColumn:  "created_at",
	}
}

// SetAllowedSortColumns sıralamaya izin verilen sütunları belirler;
// listede olmayan istekler varsayılan sütuna düşer.
func (r *BaseRepository[T]) SetAllowedSortColumns(columns []string) {
	r.allowedSorting = make(map[string]struct{}, len(columns))
	for _, c := range columns {
		r.allowedSorting[c] = struct{}{}
	}
}

// OrderColumn istenen sıralama sütununu doğrular.
func (r *BaseRepository[T]) OrderColumn(requested string) string {
	if _, ok := r.allowedSorting[requested]; ok {
		return requested
	}
	return r.defaultColumn
}

// Create yeni kayıt ekler.
func (r *BaseRepository[T]) Create(ctx context.Context, entity *T) error {
	return dbWithContext(ctx, r.db).Create(entity).Error
}

// FindByID birincil anahtara göre kayıt bulur.
func (r *BaseRepository[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	err := dbWithContext(ctx, r.db).First(&entity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

// CountAll toplam kayıt sayısını döndürür.
func (r *BaseRepository[T]) CountAll(ctx context.Context) (int64, error) {
	var count int64
	var entity T
	err := dbWithContext(ctx, r.db).Model(&entity).Count(&count).Error
	return count, err
}

var _ IBaseRepository[struct{}] = (*BaseRepository[struct{}])(nil)
