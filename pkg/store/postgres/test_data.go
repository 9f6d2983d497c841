package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dbfixture"
	"github.com/uptrace/bun/extra/bundebug"
	"gopkg.in/yaml.v3"

	"github.com/careline/careline/pkg/models"
)

type Row interface {
	CallerSchema | KeywordSchema | ResponseSchema | ConversationSchema
}

type FixtureModel[T Row] struct {
	Model string `yaml:"model"`
	Rows  []T    `yaml:"rows"`
}

type Fixtures[T Row] []FixtureModel[T]

func generateTimeLastNDays(nDays int) time.Time {
	now := time.Now()
	start := now.Add(time.Duration(-nDays) * 24 * time.Hour)
	return gofakeit.DateRange(start, now)
}

var fixturePlans = []struct {
	planType   string
	monthlyFee string
	dataLimit  string
}{
	{"Basic", "$29.99", "25GB"},
	{"Standard", "$49.99", "50GB"},
	{"Premium", "$79.99", "100GB"},
}

// GenerateFixtureData generates fixtureCount fake caller accounts, each
// with a short conversation log, plus the default rule set, and writes
// them as dbfixture YAML files to outputDir.
func GenerateFixtureData(fixtureCount int, outputDir string) {
	fakerGlobal := gofakeit.NewUnlocked(0)
	gofakeit.SetGlobalFaker(fakerGlobal)

	// Generate test data for CallerSchema
	callers := make([]CallerSchema, fixtureCount)
	for i := 0; i < fixtureCount; i++ {
		dateCreated := generateTimeLastNDays(14)
		plan := fixturePlans[gofakeit.Number(0, len(fixturePlans)-1)]
		usedGB := gofakeit.Number(1, 99)
		callers[i] = CallerSchema{
			UUID:           uuid.New(),
			CreatedAt:      dateCreated,
			UpdatedAt:      dateCreated,
			CallerID:       strings.ToLower(gofakeit.Username()),
			AccountNumber:  fmt.Sprintf("ACC-%d", gofakeit.Number(10000, 99999)),
			Balance:        fmt.Sprintf("$%d.%02d", gofakeit.Number(0, 300), gofakeit.Number(0, 99)),
			Status:         "active",
			PlanType:       plan.planType,
			MonthlyFee:     plan.monthlyFee,
			Email:          gofakeit.Email(),
			Phone:          gofakeit.Phone(),
			DataUsage:      fmt.Sprintf("%dGB", usedGB),
			DataLimit:      plan.dataLimit,
			LastBillDate:   generateTimeLastNDays(30).Format("2006-01-02"),
			LastBillAmount: plan.monthlyFee,
		}
	}

	// Generate test data for ConversationSchema
	var turns []ConversationSchema
	intents := []string{"payment", "billing", "technical_support", "view_usage", "plan_info"}
	urgencies := []string{"low", "low", "low", "medium", "high"}
	for i := range callers {
		turnCount := gofakeit.Number(2, 10)
		dateCreated := callers[i].CreatedAt
		for j := 0; j < turnCount; j++ {
			dateCreated = dateCreated.Add(time.Second * time.Duration(gofakeit.Number(5, 120)))
			turns = append(turns, ConversationSchema{
				UUID:      uuid.New(),
				CreatedAt: dateCreated,
				UpdatedAt: dateCreated,
				CallerID:  callers[i].CallerID,
				Message:   gofakeit.Question(),
				Reply:     gofakeit.Sentence(12),
				Intent:    intents[gofakeit.Number(0, len(intents)-1)],
				Urgency:   urgencies[gofakeit.Number(0, len(urgencies)-1)],
			})
		}
	}

	callerFixture := Fixtures[CallerSchema]{
		{
			Model: "CallerSchema",
			Rows:  callers,
		},
	}

	conversationFixture := Fixtures[ConversationSchema]{
		{
			Model: "ConversationSchema",
			Rows:  turns,
		},
	}

	keywordFixture := Fixtures[KeywordSchema]{
		{
			Model: "KeywordSchema",
			Rows:  defaultKeywords,
		},
	}

	responseFixture := Fixtures[ResponseSchema]{
		{
			Model: "ResponseSchema",
			Rows:  defaultResponses,
		},
	}

	if outputDir == "" {
		outputDir = "./"
	} else {
		// Create output directory if it doesn't exist
		if _, err := os.Stat(outputDir); os.IsNotExist(err) {
			err = os.Mkdir(outputDir, 0755)
			if err != nil {
				fmt.Printf("unable to create %s: %v", outputDir, err)
				return
			}
		}
	}

	// Write fixtures to YAML files
	writeFixtureToYAML(callerFixture, outputDir, "caller_fixtures.yaml")
	writeFixtureToYAML(conversationFixture, outputDir, "conversation_fixtures.yaml")
	writeFixtureToYAML(keywordFixture, outputDir, "keyword_fixtures.yaml")
	writeFixtureToYAML(responseFixture, outputDir, "response_fixtures.yaml")
}

func writeFixtureToYAML[T Row](fixtures Fixtures[T], outputDir, filename string) {
	// Marshal the fixture into YAML
	data, err := yaml.Marshal(&fixtures)
	if err != nil {
		fmt.Printf("error: %v", err)
		return
	}

	// Write the YAML data to a file
	file, err := os.Create(filepath.Join(outputDir, filename))
	if err != nil {
		fmt.Printf("error: %v", err)
		return
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			fmt.Printf("error: %v", err)
			return
		}
	}(file)

	_, err = file.Write(data)
	if err != nil {
		fmt.Printf("error: %v", err)
		return
	}

	fmt.Printf("Fixtures generated successfully in %s!\n", filename)
}

// LoadFixtures drops and recreates the schema, then loads every YAML
// fixture file found in fixturePath.
func LoadFixtures(
	ctx context.Context,
	_ *models.AppState,
	db *bun.DB,
	fixturePath string,
) error {
	db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))

	dropSchemaQuery := `DROP SCHEMA public CASCADE;
CREATE SCHEMA public;
GRANT ALL ON SCHEMA public TO postgres;
GRANT ALL ON SCHEMA public TO public;`

	_, err := db.ExecContext(ctx, dropSchemaQuery)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}

	err = CreateSchema(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	db.RegisterModel(
		(*CallerSchema)(nil),
		(*KeywordSchema)(nil),
		(*ResponseSchema)(nil),
		(*ConversationSchema)(nil),
	)

	fixture := dbfixture.New(db, dbfixture.WithRecreateTables())

	files, err := os.ReadDir(fixturePath)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, file := range files {
		if !file.IsDir() {
			switch filepath.Ext(file.Name()) {
			case ".yaml", ".yml":
				err := fixture.Load(ctx, os.DirFS(fixturePath), file.Name())
				if err != nil {
					return fmt.Errorf("failed to load fixture %s: %w", file.Name(), err)
				}
			}
		}
	}

	return nil
}
