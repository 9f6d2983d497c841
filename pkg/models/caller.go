package models

import (
	"time"

	"github.com/google/uuid"
)

// Caller is a customer account as stored in the caller store. The typed
// fields feed the renderer's {placeholder} substitution; Metadata holds
// anything else the host wants to carry.
type Caller struct {
	UUID           uuid.UUID              `json:"uuid"`
	ID             int64                  `json:"id"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	CallerID       string                 `json:"caller_id"`
	AccountNumber  string                 `json:"account_number"`
	Balance        string                 `json:"balance"`
	Status         string                 `json:"status"`
	PlanType       string                 `json:"plan_type"`
	MonthlyFee     string                 `json:"monthly_fee"`
	Email          string                 `json:"email"`
	Phone          string                 `json:"phone"`
	DataUsage      string                 `json:"data_usage"`
	DataLimit      string                 `json:"data_limit"`
	LastBillDate   string                 `json:"last_bill_date"`
	LastBillAmount string                 `json:"last_bill_amount"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Attributes flattens the caller into the placeholder map consumed by
// the response renderer. String-valued metadata entries are included;
// typed fields win on collision.
func (c *Caller) Attributes() map[string]string {
	attrs := make(map[string]string)
	for k, v := range c.Metadata {
		if s, ok := v.(string); ok {
			attrs[k] = s
		}
	}
	set := func(key, value string) {
		if value != "" {
			attrs[key] = value
		}
	}
	set("caller_id", c.CallerID)
	set("account_number", c.AccountNumber)
	set("balance", c.Balance)
	set("status", c.Status)
	set("plan_type", c.PlanType)
	set("monthly_fee", c.MonthlyFee)
	set("email", c.Email)
	set("phone", c.Phone)
	set("data_usage", c.DataUsage)
	set("data_limit", c.DataLimit)
	set("last_bill_date", c.LastBillDate)
	set("last_bill_amount", c.LastBillAmount)
	return attrs
}

type CreateCallerRequest struct {
	CallerID       string                 `json:"caller_id" validate:"required"`
	AccountNumber  string                 `json:"account_number"`
	Balance        string                 `json:"balance"`
	Status         string                 `json:"status"`
	PlanType       string                 `json:"plan_type"`
	MonthlyFee     string                 `json:"monthly_fee"`
	Email          string                 `json:"email"`
	Phone          string                 `json:"phone"`
	DataUsage      string                 `json:"data_usage"`
	DataLimit      string                 `json:"data_limit"`
	LastBillDate   string                 `json:"last_bill_date"`
	LastBillAmount string                 `json:"last_bill_amount"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

type UpdateCallerRequest struct {
	CallerID       string                 `json:"caller_id"`
	Balance        string                 `json:"balance"`
	Status         string                 `json:"status"`
	PlanType       string                 `json:"plan_type"`
	MonthlyFee     string                 `json:"monthly_fee"`
	Email          string                 `json:"email"`
	Phone          string                 `json:"phone"`
	DataUsage      string                 `json:"data_usage"`
	DataLimit      string                 `json:"data_limit"`
	LastBillDate   string                 `json:"last_bill_date"`
	LastBillAmount string                 `json:"last_bill_amount"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

type CallerListResponse struct {
	Callers    []*Caller `json:"callers"`
	RowCount   int       `json:"row_count"`
	TotalCount int       `json:"total_count"`
}
