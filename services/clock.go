package services

import "time"

// nowFunc servislerin saat kaynağıdır; testler sabit bir an verebilir.
// Tüm zaman karşılaştırmaları UTC üzerinden yapılır.
var nowFunc = func() time.Time { return time.Now().UTC() }
