package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/MarcoPoloResearchLab/lunchbot/internal/lunch"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/users"
)

type fakeIdentityFinder struct {
	identity *users.Identity
	err      error
}

func (f *fakeIdentityFinder) FindBySlackID(ctx context.Context, slackID string) (*users.Identity, error) {
	return f.identity, f.err
}

type fakeProposer struct {
	calls   int
	actorID string
	channel string
	err     error
}

func (f *fakeProposer) Propose(ctx context.Context, actorID, channel string) (lunch.Proposal, error) {
	f.calls++
	f.actorID = actorID
	f.channel = channel
	if f.err != nil {
		return lunch.Proposal{}, f.err
	}
	return lunch.Proposal{ID: "proposal-1", PlaceID: "place-1"}, nil
}

const testSchedule = "0 0 12 * * 1-5"

func TestNewSchedulerRejectsInvalidCronExpression(t *testing.T) {
	_, err := NewScheduler(SchedulerConfig{
		Schedule:    "not a schedule",
		DefaultUser: "admin",
		Users:       &fakeIdentityFinder{},
		Lunch:       &fakeProposer{},
	})
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestProposeNowRunsAsDefaultUserWithoutChannel(t *testing.T) {
	proposer := &fakeProposer{}
	scheduler, err := NewScheduler(SchedulerConfig{
		Schedule:    testSchedule,
		DefaultUser: "admin",
		Users:       &fakeIdentityFinder{identity: &users.Identity{ID: "system-1", SlackID: "admin"}},
		Lunch:       proposer,
	})
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}

	if err := scheduler.ProposeNow(context.Background()); err != nil {
		t.Fatalf("propose now failed: %v", err)
	}
	if proposer.calls != 1 {
		t.Fatalf("expected one propose call, got %d", proposer.calls)
	}
	if proposer.actorID != "system-1" {
		t.Fatalf("expected default user as actor, got %q", proposer.actorID)
	}
	if proposer.channel != "" {
		t.Fatalf("expected no channel on scheduled proposal, got %q", proposer.channel)
	}
}

func TestProposeNowFailsWhenDefaultUserMissing(t *testing.T) {
	proposer := &fakeProposer{}
	scheduler, err := NewScheduler(SchedulerConfig{
		Schedule:    testSchedule,
		DefaultUser: "admin",
		Users:       &fakeIdentityFinder{},
		Lunch:       proposer,
	})
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}

	if err := scheduler.ProposeNow(context.Background()); !errors.Is(err, ErrSystemUserMissing) {
		t.Fatalf("expected ErrSystemUserMissing, got %v", err)
	}
	if proposer.calls != 0 {
		t.Fatalf("expected no propose call, got %d", proposer.calls)
	}
}

func TestProposeNowSurfacesProposalError(t *testing.T) {
	proposer := &fakeProposer{err: lunch.ErrNoPlaces}
	scheduler, err := NewScheduler(SchedulerConfig{
		Schedule:    testSchedule,
		DefaultUser: "admin",
		Users:       &fakeIdentityFinder{identity: &users.Identity{ID: "system-1", SlackID: "admin"}},
		Lunch:       proposer,
	})
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}

	if err := scheduler.ProposeNow(context.Background()); !errors.Is(err, lunch.ErrNoPlaces) {
		t.Fatalf("expected ErrNoPlaces, got %v", err)
	}
}
