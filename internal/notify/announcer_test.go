package notify

import (
	"context"
	"testing"

	"github.com/MarcoPoloResearchLab/lunchbot/internal/lunch"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/users"
)

type recordingSender struct {
	texts    []string
	channels []string
}

func (s *recordingSender) Send(ctx context.Context, text, channel string) {
	s.texts = append(s.texts, text)
	s.channels = append(s.channels, channel)
}

type fakeIdentityFinder struct {
	identity *users.Identity
	err      error
}

func (f *fakeIdentityFinder) FindBySlackID(ctx context.Context, slackID string) (*users.Identity, error) {
	return f.identity, f.err
}

type fakePlaceFinder struct {
	place lunch.Place
	err   error
}

func (f *fakePlaceFinder) FindPlace(ctx context.Context, actorID string, id lunch.PlaceID) (lunch.Place, error) {
	if f.err != nil {
		return lunch.Place{}, f.err
	}
	return f.place, nil
}

func newTestAnnouncer(t *testing.T, cfg AnnouncerConfig) *Announcer {
	t.Helper()
	announcer, err := NewAnnouncer(cfg)
	if err != nil {
		t.Fatalf("failed to create announcer: %v", err)
	}
	return announcer
}

func systemIdentity() *users.Identity {
	return &users.Identity{ID: "system-1", SlackID: "admin"}
}

func TestAnnouncerSendsOnceOnFirstSave(t *testing.T) {
	sender := &recordingSender{}
	announcer := newTestAnnouncer(t, AnnouncerConfig{
		Webhook:     sender,
		Users:       &fakeIdentityFinder{identity: systemIdentity()},
		Places:      &fakePlaceFinder{place: lunch.Place{ID: "place-1", Name: "Pizza Place"}},
		DefaultUser: "admin",
	})

	proposal := lunch.Proposal{ID: "proposal-1", PlaceID: "place-1", Channel: "#random"}
	announcer.HandleProposalSaved(context.Background(), proposal, nil)

	if len(sender.texts) != 1 {
		t.Fatalf("expected exactly one send, got %d", len(sender.texts))
	}
	if sender.texts[0] != "Let's go have lunch at Pizza Place." {
		t.Fatalf("unexpected message text: %q", sender.texts[0])
	}
	if sender.channels[0] != "#random" {
		t.Fatalf("expected proposal channel, got %q", sender.channels[0])
	}
}

func TestAnnouncerIgnoresUpdatesWithPriorVersion(t *testing.T) {
	sender := &recordingSender{}
	announcer := newTestAnnouncer(t, AnnouncerConfig{
		Webhook:     sender,
		Users:       &fakeIdentityFinder{identity: systemIdentity()},
		Places:      &fakePlaceFinder{place: lunch.Place{ID: "place-1", Name: "Pizza Place"}},
		DefaultUser: "admin",
	})

	previous := lunch.Proposal{ID: "proposal-1", PlaceID: "place-1", Channel: "#lunch"}
	updated := previous
	updated.Channel = "#general"
	announcer.HandleProposalSaved(context.Background(), updated, &previous)

	if len(sender.texts) != 0 {
		t.Fatalf("expected no sends for an update, got %d", len(sender.texts))
	}
}

func TestAnnouncerChannelOverrideWinsOverProposalChannel(t *testing.T) {
	sender := &recordingSender{}
	announcer := newTestAnnouncer(t, AnnouncerConfig{
		Webhook:         sender,
		Users:           &fakeIdentityFinder{identity: systemIdentity()},
		Places:          &fakePlaceFinder{place: lunch.Place{ID: "place-1", Name: "Pizza Place"}},
		ChannelOverride: "#general",
		DefaultUser:     "admin",
	})

	proposal := lunch.Proposal{ID: "proposal-1", PlaceID: "place-1", Channel: "#random"}
	announcer.HandleProposalSaved(context.Background(), proposal, nil)

	if len(sender.channels) != 1 || sender.channels[0] != "#general" {
		t.Fatalf("expected override channel #general, got %v", sender.channels)
	}
}

func TestAnnouncerFallsBackToWebhookDefaultChannel(t *testing.T) {
	sender := &recordingSender{}
	announcer := newTestAnnouncer(t, AnnouncerConfig{
		Webhook:     sender,
		Users:       &fakeIdentityFinder{identity: systemIdentity()},
		Places:      &fakePlaceFinder{place: lunch.Place{ID: "place-1", Name: "Pizza Place"}},
		DefaultUser: "admin",
	})

	proposal := lunch.Proposal{ID: "proposal-1", PlaceID: "place-1"}
	announcer.HandleProposalSaved(context.Background(), proposal, nil)

	if len(sender.channels) != 1 || sender.channels[0] != "" {
		t.Fatalf("expected empty channel for webhook default, got %v", sender.channels)
	}
}

func TestAnnouncerSkipsSendWhenPlaceMissing(t *testing.T) {
	sender := &recordingSender{}
	announcer := newTestAnnouncer(t, AnnouncerConfig{
		Webhook:     sender,
		Users:       &fakeIdentityFinder{identity: systemIdentity()},
		Places:      &fakePlaceFinder{err: lunch.ErrPlaceNotFound},
		DefaultUser: "admin",
	})

	proposal := lunch.Proposal{ID: "proposal-1", PlaceID: "place-gone"}
	announcer.HandleProposalSaved(context.Background(), proposal, nil)

	if len(sender.texts) != 0 {
		t.Fatalf("expected no send when place is missing, got %d", len(sender.texts))
	}
}

func TestAnnouncerSkipsSendWhenSystemUserMissing(t *testing.T) {
	sender := &recordingSender{}
	announcer := newTestAnnouncer(t, AnnouncerConfig{
		Webhook:     sender,
		Users:       &fakeIdentityFinder{},
		Places:      &fakePlaceFinder{place: lunch.Place{ID: "place-1", Name: "Pizza Place"}},
		DefaultUser: "admin",
	})

	proposal := lunch.Proposal{ID: "proposal-1", PlaceID: "place-1"}
	announcer.HandleProposalSaved(context.Background(), proposal, nil)

	if len(sender.texts) != 0 {
		t.Fatalf("expected no send when system user is missing, got %d", len(sender.texts))
	}
}
