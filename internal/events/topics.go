package events

// Topic constants for domain events emitted by the platform.
const (
	TopicTransactionSettled = "transaction.settled"
	TopicTransactionVoided  = "transaction.voided"
	TopicProductLowStock    = "product.low_stock"
	TopicPromotionApplied   = "promotion.applied"
)

// DefaultTopics returns the canonical list of topics that support webhook
// subscriptions.
func DefaultTopics() []string {
	return []string{
		TopicTransactionSettled,
		TopicTransactionVoided,
		TopicProductLowStock,
		TopicPromotionApplied,
	}
}
