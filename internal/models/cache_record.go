package models

// CacheRecord is one row of the persistent cache tier.
// Payload holds the JSON envelope {data, expires, created, version};
// ExpiresMs and CreatedMs mirror it in unix milliseconds for sweeps and eviction.
type CacheRecord struct {
	CacheKey  string `json:"key" gorm:"column:cache_key;primaryKey;size:512"`
	Payload   string `json:"-" gorm:"type:text;not null"`
	SizeBytes int    `json:"sizeBytes" gorm:"column:size_bytes;not null;default:0"`
	ExpiresMs int64  `json:"expiresMs" gorm:"column:expires_ms;index"`
	CreatedMs int64  `json:"createdMs" gorm:"column:created_ms;index"`
}

// TableName specifies the table name for CacheRecord Model
func (CacheRecord) TableName() string {
	return "cache_records"
}
