package model

// BucketCode is one single-use redemption code loaded for a discount.
// Used only ever moves from false to true.
type BucketCode struct {
	Key        int64  // bucket_code_k, ascending order decides who is handed out first
	DiscountID string // discount_fk
	Code       string
	Used       bool
	LoadID     int64 // bucket_code_load_id, the batch load that inserted the row
}
