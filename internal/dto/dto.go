package dto

import "github.com/shopspring/decimal"

type CartItem struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Quantity int              `json:"quantity"`
}

type CheckoutRequest struct {
	Nonce string      `json:"nonce"`
	Cart  []*CartItem `json:"cart"`
}

type ClientTokenResponse struct {
	ClientToken string `json:"clientToken"`
	Success     bool   `json:"success"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type ReconcileResponse struct {
	Success    bool `json:"success"`
	Reconciled int  `json:"reconciled"`
}

// Response is the envelope every checkout endpoint answers with
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func Fail(message string, err error) *Response {
	resp := &Response{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func OK(message string) *Response {
	return &Response{Success: true, Message: message}
}
