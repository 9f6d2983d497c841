package postgres

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/careline/careline/pkg/models"
	"github.com/careline/careline/pkg/store"
)

var _ models.RuleStore = &RuleStoreDAO{}

// RuleStoreDAO reads the keyword and response tables the dialog engine
// builds its in-memory caches from.
type RuleStoreDAO struct {
	db *bun.DB
}

func NewRuleStoreDAO(db *bun.DB) *RuleStoreDAO {
	return &RuleStoreDAO{db: db}
}

func (dao *RuleStoreDAO) GetKeywords(ctx context.Context) ([]models.KeywordEntry, error) {
	var keywordsDB []KeywordSchema
	err := dao.db.NewSelect().
		Model(&keywordsDB).
		OrderExpr("keyword ASC").
		Scan(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to get keywords", err)
	}

	keywords := make([]models.KeywordEntry, len(keywordsDB))
	for i, k := range keywordsDB {
		keywords[i] = models.KeywordEntry{
			Keyword: k.Keyword,
			Intent:  models.Intent(k.Intent),
		}
	}
	return keywords, nil
}

func (dao *RuleStoreDAO) GetResponses(ctx context.Context) ([]models.ResponseTemplate, error) {
	var responsesDB []ResponseSchema
	err := dao.db.NewSelect().
		Model(&responsesDB).
		OrderExpr("intent ASC").
		Scan(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to get responses", err)
	}

	responses := make([]models.ResponseTemplate, len(responsesDB))
	for i, r := range responsesDB {
		responses[i] = models.ResponseTemplate{
			Intent:   models.Intent(r.Intent),
			Template: r.Template,
			FollowUp: r.FollowUp,
		}
	}
	return responses, nil
}

// GetIntents returns the distinct intents named by the keyword and
// response tables. The classifier prompt is built from this list.
func (dao *RuleStoreDAO) GetIntents(ctx context.Context) ([]string, error) {
	var intents []string
	err := dao.db.NewSelect().
		ColumnExpr("DISTINCT intent").
		TableExpr("(SELECT intent FROM keyword UNION SELECT intent FROM response) AS i").
		OrderExpr("intent ASC").
		Scan(ctx, &intents)
	if err != nil {
		return nil, store.NewStorageError("failed to get intents", err)
	}
	return intents, nil
}

// defaultKeywords is the built-in keyword/intent seed set.
var defaultKeywords = []KeywordSchema{
	{Keyword: "pay", Intent: "payment"},
	{Keyword: "payment", Intent: "payment"},
	{Keyword: "bill", Intent: "billing"},
	{Keyword: "billing", Intent: "billing"},
	{Keyword: "internet", Intent: "technical_support"},
	{Keyword: "network", Intent: "technical_support"},
	{Keyword: "account", Intent: "account_info"},
	{Keyword: "plan", Intent: "plan_info"},
	{Keyword: "usage", Intent: "view_usage"},
	{Keyword: "data", Intent: "view_usage"},
	{Keyword: "alert", Intent: "setup_alerts"},
	{Keyword: "upgrade", Intent: "change_data_plan"},
}

// defaultResponses is the built-in response template seed set.
var defaultResponses = []ResponseSchema{
	{
		Intent: "payment",
		Template: "Your current balance is {balance}. Would you like to:\n" +
			"1. Make a payment now\n2. Set up a payment plan\n3. See payment history",
	},
	{
		Intent: "billing",
		Template: "Your last bill was {last_bill_amount}, issued on {last_bill_date}. " +
			"Would you like to:\n1. See bill details\n2. Dispute a charge\n3. Change billing date",
	},
	{
		Intent: "technical_support",
		Template: "I can help you with technical issues. What are you experiencing?\n" +
			"1. Slow internet\n2. No connection\n3. Device problems",
	},
	{
		Intent: "account_info",
		Template: "Your account {account_number} is {status}. What would you like to do?\n" +
			"1. View account details\n2. Update personal information\n3. View bill details",
	},
	{
		Intent: "plan_info",
		Template: "You are on the {plan_type} plan at {monthly_fee} per month. " +
			"Would you like to:\n1. View plan details\n2. Compare plans\n3. Change your plan",
	},
	{
		Intent:   "view_usage",
		Template: "You have used {data_usage} of your {data_limit} data allowance this month.",
		FollowUp: "Would you like to set up a usage alert?",
	},
	{
		Intent: "change_data_plan",
		Template: "You are currently on the {plan_type} plan. Which plan would you " +
			"like to switch to?\n1. Basic\n2. Standard\n3. Premium",
	},
	{
		Intent: "setup_alerts",
		Template: "I can set up usage alerts for you. When should we notify you?\n" +
			"1. At 50% of {data_limit}\n2. At 80% of {data_limit}\n3. At 100% of {data_limit}",
	},
	{
		Intent: "general_query",
		Template: "I'm sorry, I didn't understand that. " +
			"Could you please rephrase, pick a numbered option or type \"back\"?",
	},
}

// SeedDefaultRules inserts the built-in keyword and response seed sets.
// Existing rows win on conflict, so operator edits survive restarts.
func SeedDefaultRules(ctx context.Context, db *bun.DB) error {
	keywords := make([]KeywordSchema, len(defaultKeywords))
	copy(keywords, defaultKeywords)
	_, err := db.NewInsert().
		Model(&keywords).
		On("CONFLICT (keyword) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to seed keywords", err)
	}

	responses := make([]ResponseSchema, len(defaultResponses))
	copy(responses, defaultResponses)
	_, err = db.NewInsert().
		Model(&responses).
		On("CONFLICT (intent) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to seed responses", err)
	}

	return nil
}
