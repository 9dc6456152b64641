package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-editorial"
	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/goliatone/go-editorial/internal/identity"
)

var seedOutput io.Writer = os.Stdout

type seedItem struct {
	title string
	slug  string
	kind  domain.ContentKind
	steps []seedStep
}

type seedStep struct {
	action  domain.Action
	actor   editorial.Identity
	comment string
}

var (
	seedEditor    = editorial.Identity{SubjectID: identity.UserUUID("seed-editor"), Role: domain.RoleEditor}
	seedChief     = editorial.Identity{SubjectID: identity.UserUUID("seed-chief"), Role: domain.RoleChiefEditor}
	seedPublisher = editorial.Identity{SubjectID: identity.UserUUID("seed-publisher"), Role: domain.RolePublishingEditor}
)

func seedItems() []seedItem {
	return []seedItem{
		{title: "City council draft", slug: "city-council-draft", kind: domain.KindNews},
		{
			title: "Harbour expansion review", slug: "harbour-expansion-review", kind: domain.KindArticle,
			steps: []seedStep{{action: domain.ActionSubmit, actor: seedEditor}},
		},
		{
			title: "School budget revision", slug: "school-budget-revision", kind: domain.KindNews,
			steps: []seedStep{
				{action: domain.ActionSubmit, actor: seedEditor},
				{action: domain.ActionRequestRevision, actor: seedChief, comment: "Add the district figures"},
			},
		},
		{
			title: "Festival line-up", slug: "festival-line-up", kind: domain.KindArticle,
			steps: []seedStep{
				{action: domain.ActionSubmit, actor: seedEditor},
				{action: domain.ActionApprove, actor: seedChief},
				{action: domain.ActionPublish, actor: seedPublisher},
			},
		},
	}
}

func runSeed(ctx context.Context, args []string) error {
	cfg, err := loadConfig(flag.NewFlagSet("seed", flag.ExitOnError), args)
	if err != nil {
		return err
	}
	module, err := moduleBuilder(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	created, err := seed(ctx, module.Workflow())
	if err != nil {
		return err
	}
	fmt.Fprintf(seedOutput, "seeded %d item(s)\n", created)
	return nil
}

// seed creates the demo items. Items whose slug already exists are skipped so
// repeated runs leave the store unchanged.
func seed(ctx context.Context, svc editorial.WorkflowService) (int, error) {
	created := 0
	for _, fixture := range seedItems() {
		item, err := svc.Create(ctx, editorial.CreateItemRequest{
			Title: fixture.title,
			Slug:  fixture.slug,
			Kind:  fixture.kind,
			Actor: seedEditor,
		})
		if errors.Is(err, editorial.ErrSlugConflict) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", fixture.slug, err)
		}
		created++

		version := item.Version
		for _, step := range fixture.steps {
			result, err := svc.RequestTransition(ctx, editorial.TransitionRequest{
				ContentID:       item.ID,
				Action:          step.action,
				Actor:           step.actor,
				ObservedVersion: version,
				Comment:         step.comment,
			})
			if err != nil {
				return created, fmt.Errorf("seed %s %s: %w", fixture.slug, step.action, err)
			}
			version = result.Version
		}
	}
	return created, nil
}
