package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Asaas API and webhook constants
const (
	asaasProductionURL = "https://api.asaas.com/v3"
	asaasSandboxURL    = "https://api-sandbox.asaas.com/v3"
	asaasDateLayout    = "2006-01-02"

	asaasBillingTypeUndefined = "UNDEFINED"

	AsaasEventPaymentReceived  = "PAYMENT_RECEIVED"
	AsaasEventPaymentConfirmed = "PAYMENT_CONFIRMED"

	// AsaasTokenHeader carries the shared webhook token
	AsaasTokenHeader = "asaas-access-token"
)

// asaasAmount marshals as a bare JSON number with two decimals
type asaasAmount decimal.Decimal

func (a asaasAmount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).StringFixed(2)), nil
}

func (a *asaasAmount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*a = asaasAmount(d)
	return nil
}

type asaasCustomerRequest struct {
	Name              string `json:"name"`
	CpfCnpj           string `json:"cpfCnpj,omitempty"`
	Email             string `json:"email,omitempty"`
	MobilePhone       string `json:"mobilePhone,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
	NotificationsOff  bool   `json:"notificationDisabled"`
}

type asaasCustomerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type asaasPaymentRequest struct {
	Customer          string      `json:"customer"`
	BillingType       string      `json:"billingType"`
	Value             asaasAmount `json:"value"`
	DueDate           string      `json:"dueDate"`
	Description       string      `json:"description,omitempty"`
	ExternalReference string      `json:"externalReference"`
}

type asaasPaymentResponse struct {
	ID                string      `json:"id"`
	Customer          string      `json:"customer"`
	Status            string      `json:"status"`
	Value             asaasAmount `json:"value"`
	InvoiceURL        string      `json:"invoiceUrl"`
	ExternalReference string      `json:"externalReference"`
}

type asaasErrorResponse struct {
	Errors []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

func (e asaasErrorResponse) String() string {
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		parts = append(parts, item.Code+": "+item.Description)
	}
	return strings.Join(parts, "; ")
}

type asaasWebhookPayload struct {
	ID      string                `json:"id"`
	Event   string                `json:"event"`
	Payment *asaasPaymentResponse `json:"payment"`
}
