// Package main provides a tool to seed the stores with demo presale data.
//
// It creates an organizer with a live event, categories, items with and
// without variations, quotas, and demo user accounts, then builds the
// search index for the event.
//
// Usage:
//
//	DATA_PATH=~/boxoffice go run ./cmd/seed
//	DATA_PATH=~/boxoffice go run ./cmd/seed --create-users  # Also create demo users
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/boxofficeapp/boxoffice-server/internal/auth"
	"github.com/boxofficeapp/boxoffice-server/internal/domain"
	"github.com/boxofficeapp/boxoffice-server/internal/id"
	"github.com/boxofficeapp/boxoffice-server/internal/identity"
	"github.com/boxofficeapp/boxoffice-server/internal/normalize"
	"github.com/boxofficeapp/boxoffice-server/internal/search"
	"github.com/boxofficeapp/boxoffice-server/internal/service"
	"github.com/boxofficeapp/boxoffice-server/internal/store"
	"github.com/boxofficeapp/boxoffice-server/internal/store/sqlite"
)

var createUsers = flag.Bool("create-users", false, "Create demo user accounts")

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/boxoffice")
	}

	fmt.Printf("Seeding data under: %s\n", dataPath)

	catalog, err := sqlite.Open(filepath.Join(dataPath, "catalog.db"), nil)
	if err != nil {
		log.Fatalf("Failed to open catalog store: %v", err)
	}
	defer catalog.Close()

	users, err := store.New(filepath.Join(dataPath, "db"), nil)
	if err != nil {
		log.Fatalf("Failed to open user store: %v", err)
	}
	defer users.Close()

	ctx := context.Background()

	organizer, event := seedCatalog(ctx, catalog)

	if *createUsers {
		seedUsers(ctx, users, event)
	}

	index, err := search.NewIndex(search.Options{DataPath: dataPath})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	searchSvc := service.NewSearchService(index, catalog, nil)
	if err := searchSvc.ReindexEvent(ctx, event, organizer); err != nil {
		log.Fatalf("Failed to index event: %v", err)
	}

	count, _ := index.DocumentCount()
	fmt.Printf("Done. Search index holds %d documents.\n", count)
	fmt.Printf("Shop: /api/v1/events/%s/%s/shop\n", organizer.Slug, event.Slug)
}

func newMeta(prefix string) domain.Meta {
	entityID, err := id.Generate(prefix)
	if err != nil {
		log.Fatalf("Failed to generate ID: %v", err)
	}
	now := time.Now()
	return domain.Meta{ID: entityID, CreatedAt: now, UpdatedAt: now}
}

// seedCatalog creates the demo organizer, event, categories, items, and
// quotas. Item names deliberately include accents and a quota-less item
// so the shop and search behavior can be checked by hand.
func seedCatalog(ctx context.Context, catalog *sqlite.Store) (*domain.Organizer, *domain.Event) {
	organizerName := "Atelier Müller e.V."
	eventName := "Théâtre Summer Festival"
	organizerSlug := normalize.Slugify(organizerName)

	organizer := &domain.Organizer{
		Meta: newMeta("org"),
		Slug: organizerSlug,
		Name: organizerName,
	}
	if err := catalog.CreateOrganizer(ctx, organizer); err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			log.Fatalf("Failed to create organizer: %v", err)
		}
		// Rerun against an already-seeded database: reuse the existing
		// catalog instead of tripping over the slug collisions.
		existing, err := catalog.GetOrganizerBySlug(ctx, organizerSlug)
		if err != nil {
			log.Fatalf("Failed to load existing organizer: %v", err)
		}
		event, err := catalog.GetEventBySlug(ctx, organizerSlug, normalize.Slugify(eventName))
		if err != nil {
			log.Fatalf("Failed to load existing event: %v", err)
		}
		fmt.Printf("Catalog already seeded, reusing %s / %s\n", existing.Slug, event.Slug)
		return existing, event
	}
	fmt.Printf("Organizer: %s (%s)\n", organizer.Name, organizer.Slug)

	event := &domain.Event{
		Meta:        newMeta("evt"),
		OrganizerID: organizer.ID,
		Slug:        normalize.Slugify(eventName),
		Name:        eventName,
		Currency:    "EUR",
		Live:        true,
		Settings:    domain.DefaultEventSettings(),
	}
	if err := catalog.CreateEvent(ctx, event); err != nil {
		log.Fatalf("Failed to create event: %v", err)
	}
	fmt.Printf("Event: %s (%s)\n", event.Name, event.Slug)

	tickets := &domain.Category{Meta: newMeta("cat"), EventID: event.ID, Name: "Tickets", Position: 1}
	merch := &domain.Category{Meta: newMeta("cat"), EventID: event.ID, Name: "Merchandise", Position: 2}
	for _, c := range []*domain.Category{tickets, merch} {
		if err := catalog.CreateCategory(ctx, c); err != nil {
			log.Fatalf("Failed to create category %s: %v", c.Name, err)
		}
	}

	// Plain item backed by a limited quota.
	dayPass := &domain.Item{
		Meta:           newMeta("itm"),
		EventID:        event.ID,
		CategoryID:     tickets.ID,
		Name:           "Day Pass",
		BasePriceCents: 2500,
		Active:         true,
	}
	mustCreateItem(ctx, catalog, dayPass)
	mustCreateQuota(ctx, catalog, &domain.Quota{
		Meta:    newMeta("quo"),
		EventID: event.ID,
		Name:    "Day Passes",
		Size:    int64Ptr(500),
		ItemIDs: []string{dayPass.ID},
	})

	// Item with a price-overriding variation axis. The child price
	// undercuts the base price; availability is tracked per variation.
	weekendAdult := domain.PropertyValue{ID: mustID("pv"), Value: "Adult", Position: 1}
	weekendChild := domain.PropertyValue{ID: mustID("pv"), Value: "Child", Position: 2}
	weekendPass := &domain.Item{
		Meta:           newMeta("itm"),
		EventID:        event.ID,
		CategoryID:     tickets.ID,
		Name:           "Weekend Pass",
		BasePriceCents: 6000,
		Active:         true,
		Properties: []domain.Property{{
			ID:       mustID("prp"),
			Name:     "Admission",
			Position: 1,
			Values:   []domain.PropertyValue{weekendAdult, weekendChild},
		}},
	}
	adultVar := domain.Variation{ID: mustID("var"), ItemID: weekendPass.ID, Values: []domain.PropertyValue{weekendAdult}}
	childVar := domain.Variation{
		ID: mustID("var"), ItemID: weekendPass.ID,
		Values:     []domain.PropertyValue{weekendChild},
		PriceCents: int64Ptr(3500),
	}
	weekendPass.Variations = []domain.Variation{adultVar, childVar}
	mustCreateItem(ctx, catalog, weekendPass)
	mustCreateQuota(ctx, catalog, &domain.Quota{
		Meta:         newMeta("quo"),
		EventID:      event.ID,
		Name:         "Weekend Passes",
		Size:         int64Ptr(200),
		ItemIDs:      []string{weekendPass.ID},
		VariationIDs: []string{adultVar.ID, childVar.ID},
	})

	// Merchandise with three sizes sharing one unlimited quota.
	sizeS := domain.PropertyValue{ID: mustID("pv"), Value: "S", Position: 1}
	sizeM := domain.PropertyValue{ID: mustID("pv"), Value: "M", Position: 2}
	sizeL := domain.PropertyValue{ID: mustID("pv"), Value: "L", Position: 3}
	shirt := &domain.Item{
		Meta:           newMeta("itm"),
		EventID:        event.ID,
		CategoryID:     merch.ID,
		Name:           "Festival T-Shirt",
		BasePriceCents: 1800,
		Active:         true,
		Properties: []domain.Property{{
			ID:       mustID("prp"),
			Name:     "Size",
			Position: 1,
			Values:   []domain.PropertyValue{sizeS, sizeM, sizeL},
		}},
	}
	shirtVars := make([]domain.Variation, 0, 3)
	for _, val := range []domain.PropertyValue{sizeS, sizeM, sizeL} {
		shirtVars = append(shirtVars, domain.Variation{
			ID: mustID("var"), ItemID: shirt.ID,
			Values: []domain.PropertyValue{val},
		})
	}
	shirt.Variations = shirtVars
	mustCreateItem(ctx, catalog, shirt)
	shirtQuota := &domain.Quota{
		Meta:    newMeta("quo"),
		EventID: event.ID,
		Name:    "Shirts",
		ItemIDs: []string{shirt.ID},
	}
	for _, v := range shirtVars {
		shirtQuota.VariationIDs = append(shirtQuota.VariationIDs, v.ID)
	}
	mustCreateQuota(ctx, catalog, shirtQuota)

	// An item with no quota never reaches the shop. Kept in the seed to
	// make that rule visible in demos.
	phantom := &domain.Item{
		Meta:           newMeta("itm"),
		EventID:        event.ID,
		CategoryID:     tickets.ID,
		Name:           "Backstage Pass",
		BasePriceCents: 15000,
		Active:         true,
	}
	mustCreateItem(ctx, catalog, phantom)

	fmt.Println("Catalog: 2 categories, 4 items, 3 quotas")
	return organizer, event
}

// seedUsers creates one global and one event-local demo account, both
// with the password "demo1234".
func seedUsers(ctx context.Context, users *store.Store, event *domain.Event) {
	hash, err := auth.HashPassword("demo1234")
	if err != nil {
		log.Fatalf("Failed to hash demo password: %v", err)
	}

	global := &domain.User{
		Meta:         newMeta("usr"),
		Identifier:   identity.Global("anna@example.com"),
		Email:        "anna@example.com",
		PasswordHash: hash,
		Active:       true,
	}
	local := &domain.User{
		Meta:         newMeta("usr"),
		Identifier:   identity.Local("bob", event.ID),
		Username:     "bob",
		EventID:      event.ID,
		PasswordHash: hash,
		Active:       true,
	}

	for _, u := range []*domain.User{global, local} {
		if err := users.CreateUser(ctx, u); err != nil {
			log.Printf("Skipping user %s: %v", u.Identifier, err)
			continue
		}
		fmt.Printf("User: %s\n", u.Identifier)
	}
}

func mustCreateItem(ctx context.Context, catalog *sqlite.Store, item *domain.Item) {
	if err := catalog.CreateItem(ctx, item); err != nil {
		log.Fatalf("Failed to create item %s: %v", item.Name, err)
	}
}

func mustCreateQuota(ctx context.Context, catalog *sqlite.Store, quota *domain.Quota) {
	if err := catalog.CreateQuota(ctx, quota); err != nil {
		log.Fatalf("Failed to create quota %s: %v", quota.Name, err)
	}
}

func mustID(prefix string) string {
	entityID, err := id.Generate(prefix)
	if err != nil {
		log.Fatalf("Failed to generate ID: %v", err)
	}
	return entityID
}

func int64Ptr(v int64) *int64 {
	return &v
}
