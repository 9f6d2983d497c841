package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/careline/careline/pkg/models"
)

type KeywordSchema struct {
	bun.BaseModel `bun:"table:keyword,alias:k" yaml:"-"`

	UUID      uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"             yaml:"uuid,omitempty"`
	ID        int64     `bun:",autoincrement"                                      yaml:"id,omitempty"`
	CreatedAt time.Time `bun:"type:timestamptz,notnull,default:current_timestamp"  yaml:"created_at,omitempty"`
	UpdatedAt time.Time `bun:"type:timestamptz,nullzero,default:current_timestamp" yaml:"updated_at,omitempty"`
	DeletedAt time.Time `bun:"type:timestamptz,soft_delete,nullzero"               yaml:"deleted_at,omitempty"`
	Keyword   string    `bun:",unique,notnull"                                     yaml:"keyword,omitempty"`
	Intent    string    `bun:",notnull"                                            yaml:"intent,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*KeywordSchema)(nil)

func (s *KeywordSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

// BeforeCreateTable is a marker method to ensure uniform interface across all table models - used in table creation iterator
func (s *KeywordSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type ResponseSchema struct {
	bun.BaseModel `bun:"table:response,alias:r" yaml:"-"`

	UUID      uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"             yaml:"uuid,omitempty"`
	ID        int64     `bun:",autoincrement"                                      yaml:"id,omitempty"`
	CreatedAt time.Time `bun:"type:timestamptz,notnull,default:current_timestamp"  yaml:"created_at,omitempty"`
	UpdatedAt time.Time `bun:"type:timestamptz,nullzero,default:current_timestamp" yaml:"updated_at,omitempty"`
	DeletedAt time.Time `bun:"type:timestamptz,soft_delete,nullzero"               yaml:"deleted_at,omitempty"`
	Intent    string    `bun:",unique,notnull"                                     yaml:"intent,omitempty"`
	Template  string    `bun:",notnull"                                            yaml:"template,omitempty"`
	FollowUp  string    `bun:",nullzero"                                           yaml:"follow_up,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*ResponseSchema)(nil)

func (s *ResponseSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (s *ResponseSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type CallerSchema struct {
	bun.BaseModel `bun:"table:caller,alias:c" yaml:"-"`

	UUID      uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"             yaml:"uuid,omitempty"`
	ID        int64     `bun:",autoincrement"                                      yaml:"id,omitempty"` // used as a cursor for pagination
	CreatedAt time.Time `bun:"type:timestamptz,notnull,default:current_timestamp"  yaml:"created_at,omitempty"`
	UpdatedAt time.Time `bun:"type:timestamptz,nullzero,default:current_timestamp" yaml:"updated_at,omitempty"`
	DeletedAt time.Time `bun:"type:timestamptz,soft_delete,nullzero"               yaml:"deleted_at,omitempty"`
	CallerID  string    `bun:",unique,notnull"                                     yaml:"caller_id,omitempty"`

	AccountNumber  string                 `bun:","                                   yaml:"account_number,omitempty"`
	Balance        string                 `bun:","                                   yaml:"balance,omitempty"`
	Status         string                 `bun:","                                   yaml:"status,omitempty"`
	PlanType       string                 `bun:","                                   yaml:"plan_type,omitempty"`
	MonthlyFee     string                 `bun:","                                   yaml:"monthly_fee,omitempty"`
	Email          string                 `bun:","                                   yaml:"email,omitempty"`
	Phone          string                 `bun:","                                   yaml:"phone,omitempty"`
	DataUsage      string                 `bun:","                                   yaml:"data_usage,omitempty"`
	DataLimit      string                 `bun:","                                   yaml:"data_limit,omitempty"`
	LastBillDate   string                 `bun:","                                   yaml:"last_bill_date,omitempty"`
	LastBillAmount string                 `bun:","                                   yaml:"last_bill_amount,omitempty"`
	Metadata       map[string]interface{} `bun:"type:jsonb,nullzero,json_use_number" yaml:"metadata,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*CallerSchema)(nil)

func (s *CallerSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (s *CallerSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type ConversationSchema struct {
	bun.BaseModel `bun:"table:conversation,alias:cv" yaml:"-"`

	UUID uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()" yaml:"uuid,omitempty"`
	// ID is used for sorting / slicing as we can't sort by CreatedAt
	// for turns created simultaneously
	ID        int64         `bun:",autoincrement"                                              yaml:"id,omitempty"`
	CreatedAt time.Time     `bun:"type:timestamptz,notnull,default:current_timestamp"          yaml:"created_at,omitempty"`
	UpdatedAt time.Time     `bun:"type:timestamptz,nullzero,default:current_timestamp"         yaml:"updated_at,omitempty"`
	DeletedAt time.Time     `bun:"type:timestamptz,soft_delete,nullzero"                       yaml:"deleted_at,omitempty"`
	CallerID  string        `bun:",notnull"                                                    yaml:"caller_id,omitempty"`
	Message   string        `bun:",notnull"                                                    yaml:"message,omitempty"`
	Reply     string        `bun:",notnull"                                                    yaml:"reply,omitempty"`
	Intent    string        `bun:","                                                           yaml:"intent,omitempty"`
	Urgency   string        `bun:","                                                           yaml:"urgency,omitempty"`
	Caller    *CallerSchema `bun:"rel:belongs-to,join:caller_id=caller_id,on_delete:cascade"   yaml:"-"`
}

var _ bun.BeforeAppendModelHook = (*ConversationSchema)(nil)

func (s *ConversationSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (s *ConversationSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// Create lookup indexes after table creation
var _ bun.AfterCreateTableHook = (*KeywordSchema)(nil)
var _ bun.AfterCreateTableHook = (*ResponseSchema)(nil)
var _ bun.AfterCreateTableHook = (*CallerSchema)(nil)
var _ bun.AfterCreateTableHook = (*ConversationSchema)(nil)

func (*KeywordSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*KeywordSchema)(nil)).
		Index("keyword_keyword_idx").
		Column("keyword").
		IfNotExists().
		Exec(ctx)
	return err
}

func (*ResponseSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*ResponseSchema)(nil)).
		Index("response_intent_idx").
		Column("intent").
		IfNotExists().
		Exec(ctx)
	return err
}

func (*CallerSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*CallerSchema)(nil)).
		Index("caller_caller_id_idx").
		Column("caller_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return err
	}

	_, err = query.DB().NewCreateIndex().
		Model((*CallerSchema)(nil)).
		Index("caller_email_idx").
		Column("email").
		IfNotExists().
		Exec(ctx)
	return err
}

func (*ConversationSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	colsToIndex := []string{"caller_id", "id"}
	for _, col := range colsToIndex {
		_, err := query.DB().NewCreateIndex().
			Model((*ConversationSchema)(nil)).
			Index(fmt.Sprintf("conversation_%s_idx", col)).
			Column(col).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

var tableList = []bun.BeforeCreateTableHook{
	&ConversationSchema{},
	&KeywordSchema{},
	&ResponseSchema{},
	&CallerSchema{},
}

// CreateSchema creates the db schema if it does not exist.
func CreateSchema(
	ctx context.Context,
	db *bun.DB,
) error {
	// iterate through tableList in reverse order to create tables with foreign keys first
	for i := len(tableList) - 1; i >= 0; i-- {
		schema := tableList[i]
		_, err := db.NewCreateTable().
			Model(schema).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			// bun still trying to create indexes despite IfNotExists flag
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("error creating table for schema %T: %w", schema, err)
		}
	}

	return nil
}

// NewPostgresConn creates a new bun.DB connection to a postgres database using the provided DSN.
// The connection is configured to pool connections based on the number of PROCs available.
func NewPostgresConn(appState *models.AppState) (*bun.DB, error) {
	maxOpenConns := 4 * runtime.GOMAXPROCS(0)

	sqldb := sql.OpenDB(
		pgdriver.NewConnector(
			pgdriver.WithDSN(appState.Config.Store.Postgres.DSN),
			pgdriver.WithReadTimeout(1*time.Minute),
		),
	)
	sqldb.SetMaxOpenConns(maxOpenConns)
	sqldb.SetMaxIdleConns(maxOpenConns)

	return bun.NewDB(sqldb, pgdialect.New()), nil
}
