package browser_test

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"activityboard/internal/adapters/activityapi"
	web "activityboard/internal/adapters/http"
	"activityboard/internal/adapters/http/api"
	"activityboard/internal/adapters/storage"
	activityStore "activityboard/internal/adapters/storage/activity"
	"activityboard/internal/application/board"
	"activityboard/internal/application/orchestrators"
)

// testApp holds the running API, the board server and Playwright handles.
type testApp struct {
	BaseURL string
	Store   *activityStore.SQLiteStore
	Browser playwright.Browser
}

// newTestApp starts a seeded activities API and a board wired to it.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("failed to initialise test DB: %v", err)
	}
	store := activityStore.NewSQLiteStore(db)
	if err := orchestrators.ExecuteSeedActivities(context.Background(), orchestrators.SeedActivitiesDeps{ActivityStore: store}); err != nil {
		t.Fatalf("failed to seed activities: %v", err)
	}
	apiSrv := httptest.NewServer(api.NewMux(store, api.Config{}))

	client, err := activityapi.NewClient(apiSrv.URL)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	b := board.New(client)

	boardSrv := httptest.NewUnstartedServer(nil)
	host := boardSrv.Listener.Addr().String()
	handler, err := web.NewMux(b, web.Config{
		CSRFKey:            []byte(strings.Repeat("b", 32)),
		TrustedOrigins:     []string{host},
		RateLimitPerSecond: 100,
	})
	if err != nil {
		t.Fatalf("failed to build board handler: %v", err)
	}
	boardSrv.Config.Handler = handler
	boardSrv.Start()

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		boardSrv.Close()
		apiSrv.Close()
		db.Close()
	})

	return &testApp{BaseURL: boardSrv.URL, Store: store, Browser: browser}
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// open navigates to the board and waits for the cards.
func (a *testApp) open(t *testing.T, page playwright.Page) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/"); err != nil {
		t.Fatalf("failed to navigate to board: %v", err)
	}
	if err := page.Locator(".activity-card").First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("activity cards not shown: %v", err)
	}
}

// signup fills and submits the signup form.
func signup(t *testing.T, page playwright.Page, activityName, email string) {
	t.Helper()
	if err := page.Locator("#email").Fill(email); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if _, err := page.Locator("#activity").SelectOption(playwright.SelectOptionValues{Values: playwright.StringSlice(activityName)}); err != nil {
		t.Fatalf("failed to select activity: %v", err)
	}
	if err := page.Locator("#signup-form button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to submit signup: %v", err)
	}
}
