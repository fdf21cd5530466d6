// FILE: internal/dto/payment_dto.go
package dto

type PlanResponse struct {
	Slug             string `json:"slug"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	MaxRequests      int    `json:"requests"`
	MaxImageRequests int    `json:"image_requests"`
}

type CheckoutRequest struct {
	Plan string `json:"plan" validate:"required"`
}

type CheckoutResponse struct {
	OrderId         string `json:"order_id"`
	SnapToken       string `json:"snap_token"`
	SnapRedirectUrl string `json:"snap_redirect_url"`
}

type UpdatePlanRequest struct {
	UserId    string `json:"user_id" validate:"required"`
	PlanId    string `json:"plan_id" validate:"required"`
	PaymentId string `json:"payment_id" validate:"required"`
}

// PaymentWebhookRequest mirrors the midtrans notification payload fields
// needed for signature validation and plan reconciliation.
type PaymentWebhookRequest struct {
	OrderId           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	TransactionId     string `json:"transaction_id"`
}
