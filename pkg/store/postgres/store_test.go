package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/careline/careline/internal"
	"github.com/careline/careline/pkg/models"
	"github.com/careline/careline/pkg/testutils"
)

var testDB *bun.DB
var testCtx context.Context
var appState *models.AppState

func TestMain(m *testing.M) {
	setup()
	exitCode := m.Run()
	tearDown()

	os.Exit(exitCode)
}

func setup() {
	logger := internal.GetLogger()
	internal.SetLogLevel(logrus.DebugLevel)

	appState = &models.AppState{}
	cfg := testutils.NewTestConfig()
	cfg.Store.Postgres.DSN = testutils.GetDSN()
	appState.Config = cfg

	// Initialize the database connection
	var err error
	testDB, err = NewPostgresConn(appState)
	if err != nil {
		panic(err)
	}
	testutils.SetUpDBLogging(testDB, logger)

	testCtx = context.Background()

	err = CreateSchema(testCtx, testDB)
	if err != nil {
		panic(err)
	}
}

func tearDown() {
	// Close the database connection
	if err := testDB.Close(); err != nil {
		panic(err)
	}
	internal.SetLogLevel(logrus.InfoLevel)
}

func TestGenerateLockIDIsStable(t *testing.T) {
	a := generateLockID("caller-1")
	b := generateLockID("caller-1")
	if a != b {
		t.Errorf("expected identical lock IDs, got %d and %d", a, b)
	}
	if a == generateLockID("caller-2") {
		t.Error("expected different keys to map to different lock IDs")
	}
}
