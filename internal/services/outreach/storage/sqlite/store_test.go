package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"github.com/louisbranch/outreach/internal/services/outreach/storage"
)

var testNow = time.Date(2026, time.March, 2, 15, 0, 0, 0, time.UTC)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "outreach.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
}

func TestCustomersRoundTripInInsertionOrder(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	customers := []segment.Customer{
		{
			ID:        "c-2",
			Name:      "Ece",
			Email:     "ece@example.com",
			Age:       41,
			Location:  "Ankara",
			Interests: []string{"tech", "books"},
			Purchases: []segment.Purchase{
				{Amount: 120.5, At: testNow.Add(-48 * time.Hour), Category: "electronics"},
				{Amount: 30, At: testNow.Add(-24 * time.Hour), Category: "books"},
			},
		},
		{ID: "c-1", Name: "Mert", Age: 25, Location: "Izmir", Interests: []string{"sports"}},
	}
	if err := store.PutCustomers(ctx, customers); err != nil {
		t.Fatalf("put customers: %v", err)
	}

	updated := customers[0]
	updated.Age = 42
	updated.Purchases = updated.Purchases[:1]
	if err := store.PutCustomer(ctx, updated); err != nil {
		t.Fatalf("update customer: %v", err)
	}

	got, err := store.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c-2" || got[1].ID != "c-1" {
		t.Fatalf("customers = %+v, want insertion order c-2, c-1", got)
	}
	if got[0].Age != 42 || len(got[0].Purchases) != 1 {
		t.Fatalf("updated customer = %+v", got[0])
	}
	if !got[0].Purchases[0].At.Equal(testNow.Add(-48 * time.Hour)) {
		t.Fatalf("purchase at = %v", got[0].Purchases[0].At)
	}
	if !reflect.DeepEqual(got[0].Interests, []string{"tech", "books"}) {
		t.Fatalf("interests = %v", got[0].Interests)
	}
	if got[1].Purchases != nil {
		t.Fatalf("purchases = %v, want none", got[1].Purchases)
	}
}

func TestPutCustomersRequiresID(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.PutCustomers(context.Background(), []segment.Customer{{ID: "ok"}, {ID: " "}}); err == nil {
		t.Fatal("expected missing id error")
	}
	got, err := store.ListCustomers(context.Background())
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("customers = %v, want none written", got)
	}
}

func TestDefinitionsCRUD(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	definition := segment.Definition{
		ID:   "seg-1",
		Name: "Ankara tech",
		Criteria: []segment.Criterion{
			{Field: segment.FieldAge, Operator: segment.OpGreaterThan, Value: segment.Number(30)},
			{Field: segment.FieldInterests, Operator: segment.OpInSet, Value: segment.Set("tech", "books")},
			{Field: segment.FieldLocation, Operator: segment.OpEquals, Value: segment.Text("Ankara")},
		},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	if err := store.PutDefinition(ctx, definition); err != nil {
		t.Fatalf("put definition: %v", err)
	}
	got, err := store.GetDefinition(ctx, "seg-1")
	if err != nil {
		t.Fatalf("get definition: %v", err)
	}
	if !reflect.DeepEqual(got.Criteria, definition.Criteria) {
		t.Fatalf("criteria = %+v, want %+v", got.Criteria, definition.Criteria)
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Fatalf("created at = %v", got.CreatedAt)
	}

	definition.Name = "Renamed"
	definition.Criteria = nil
	definition.UpdatedAt = testNow.Add(time.Hour)
	if err := store.PutDefinition(ctx, definition); err != nil {
		t.Fatalf("update definition: %v", err)
	}
	list, err := store.ListDefinitions(ctx)
	if err != nil {
		t.Fatalf("list definitions: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Renamed" || len(list[0].Criteria) != 0 {
		t.Fatalf("definitions = %+v", list)
	}

	if err := store.DeleteDefinition(ctx, "seg-1"); err != nil {
		t.Fatalf("delete definition: %v", err)
	}
	if _, err := store.GetDefinition(ctx, "seg-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted err = %v, want ErrNotFound", err)
	}
	if err := store.DeleteDefinition(ctx, "seg-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delete missing err = %v, want ErrNotFound", err)
	}
}

func TestCampaignRoundTripFreezesRecipients(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	c := campaign.Campaign{
		ID:                  "camp-1",
		Name:                "Spring",
		ContentTemplate:     "Hello {name}",
		SegmentDefinitionID: "seg-1",
		Recipients:          []string{},
		Status:              campaign.StatusDraft,
		CreatedAt:           testNow,
		UpdatedAt:           testNow,
	}
	if err := store.PutCampaign(ctx, c); err != nil {
		t.Fatalf("put draft: %v", err)
	}
	draft, err := store.GetCampaign(ctx, "camp-1")
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if !draft.ScheduledAt.IsZero() || draft.LaunchedAt != nil || len(draft.Recipients) != 0 {
		t.Fatalf("draft = %+v", draft)
	}

	c.Recipients = []string{"c-2", "c-1"}
	c.Status = campaign.StatusScheduled
	c.ScheduledAt = testNow
	if err := store.PutCampaign(ctx, c); err != nil {
		t.Fatalf("put scheduled: %v", err)
	}

	launchedAt := testNow
	c.Status = campaign.StatusSending
	c.LaunchedAt = &launchedAt
	c.Recipients = []string{"ignored"}
	if err := store.PutCampaign(ctx, c); err != nil {
		t.Fatalf("put sending: %v", err)
	}

	got, err := store.GetCampaign(ctx, "camp-1")
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if !reflect.DeepEqual(got.Recipients, []string{"c-2", "c-1"}) {
		t.Fatalf("recipients = %v, want frozen snapshot", got.Recipients)
	}
	if got.Status != campaign.StatusSending || got.LaunchedAt == nil || !got.LaunchedAt.Equal(testNow) {
		t.Fatalf("campaign = %+v", got)
	}

	list, err := store.ListCampaigns(ctx)
	if err != nil {
		t.Fatalf("list campaigns: %v", err)
	}
	if len(list) != 1 || len(list[0].Recipients) != 2 {
		t.Fatalf("campaigns = %+v", list)
	}
	if _, err := store.GetCampaign(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing err = %v, want ErrNotFound", err)
	}
}

func TestPutCampaignRejectsDuplicateRecipients(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	err := store.PutCampaign(context.Background(), campaign.Campaign{
		ID:         "camp-1",
		Name:       "Dup",
		Status:     campaign.StatusScheduled,
		Recipients: []string{"c-1", "c-1"},
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if _, err := store.GetCampaign(context.Background(), "camp-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("campaign persisted after failed write: %v", err)
	}
}

func TestOutcomesAppendAndOrder(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.PutCampaign(ctx, campaign.Campaign{ID: "camp-1", Name: "x", Status: campaign.StatusDraft, CreatedAt: testNow, UpdatedAt: testNow}); err != nil {
		t.Fatalf("put campaign: %v", err)
	}
	outcomes := []campaign.Outcome{
		{CampaignID: "camp-1", CustomerID: "c-1", Event: campaign.EventOpened, At: testNow.Add(time.Hour)},
		{CampaignID: "camp-1", CustomerID: "c-1", Event: campaign.EventSent, At: testNow, Detail: "msg-1"},
		{CampaignID: "camp-1", CustomerID: "c-2", Event: campaign.EventFailed, At: testNow, Detail: "mailbox full"},
	}
	for _, outcome := range outcomes {
		if err := store.AppendOutcome(ctx, outcome); err != nil {
			t.Fatalf("append outcome: %v", err)
		}
	}
	got, err := store.ListOutcomes(ctx, "camp-1")
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	want := []campaign.Outcome{outcomes[1], outcomes[2], outcomes[0]}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("outcomes = %+v, want %+v", got, want)
	}

	err = store.AppendOutcome(ctx, campaign.Outcome{CampaignID: "missing", CustomerID: "c-1", Event: campaign.EventSent, At: testNow})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("append to missing campaign err = %v, want ErrNotFound", err)
	}
}

func TestStoreHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.ListCustomers(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "outreach.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
