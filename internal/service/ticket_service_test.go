package service

import (
	"context"
	"strings"
	"testing"

	"github.com/spec-kit/erp-desk/internal/domain"
	apperrors "github.com/spec-kit/erp-desk/pkg/util/errorutil"
)

func TestCreateTicketOrderAndSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.tickets.Create(ctx, f.company.ID, f.owner.ID, TicketCreateInput{Title: "  Printer down ", Description: "3rd floor"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := f.tickets.Create(ctx, f.company.ID, f.owner.ID, TicketCreateInput{Title: "VPN", Priority: domain.TicketPriorityHigh})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first.Title != "Printer down" || first.Status != domain.TicketStatusOpen || first.Priority != domain.TicketPriorityMedium {
		t.Fatalf("unexpected ticket %+v", first)
	}
	if first.Order != 1 || second.Order != 2 {
		t.Fatalf("orders = %d, %d; want 1, 2", first.Order, second.Order)
	}

	// the owner is the only ADMIN, so each ticket is auto-assigned to them
	if !first.IsAssignedTo(f.owner.ID) {
		t.Fatalf("expected assignment to owner, got %v", first.AssignedTo)
	}
	events, err := f.tickets.Events(ctx, f.company.ID, first.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 || events[0].Type != domain.TicketEventAssigned || events[1].Type != domain.TicketEventCreated {
		t.Fatalf("unexpected events %+v", events)
	}
	if events[1].Message != "Ticket created: Printer down" {
		t.Fatalf("created message = %q", events[1].Message)
	}

	// one assigned and one created notice per ticket
	msgs := f.notifier.messages()
	if len(msgs) != 4 {
		t.Fatalf("got %d notifications, want 4", len(msgs))
	}
	if !strings.HasSuffix(msgs[1].Subject, "] Created - Printer down") {
		t.Fatalf("subject = %q", msgs[1].Subject)
	}
	if len(msgs[1].Recipients) != 1 || msgs[1].Recipients[0] != "owner@example.com" {
		t.Fatalf("recipients = %v", msgs[1].Recipients)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input TicketCreateInput
	}{
		{name: "blank title", input: TicketCreateInput{Title: "   "}},
		{name: "unknown priority", input: TicketCreateInput{Title: "x", Priority: "URGENT!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tickets.Create(ctx, f.company.ID, f.owner.ID, tt.input)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAutoAssignmentPolicy(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, f *fixture) string
		wantEvent bool
	}{
		{
			name: "manager preferred over admin",
			setup: func(t *testing.T, f *fixture) string {
				return f.member(t, "Max Manager", "max@example.com", domain.RoleManager).ID
			},
			wantEvent: true,
		},
		{
			name:      "admin when no manager",
			setup:     func(t *testing.T, f *fixture) string { return f.owner.ID },
			wantEvent: true,
		},
		{
			name: "nobody when only members",
			setup: func(t *testing.T, f *fixture) string {
				f.member(t, "Mia Member", "mia@example.com", domain.RoleMember)
				if _, err := f.companies.AddMember(context.Background(), f.company.ID, "owner@example.com", domain.RoleMember); err != nil {
					t.Fatalf("demote owner: %v", err)
				}
				return ""
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			want := tt.setup(t, f)

			ticket, err := f.tickets.Create(ctx, f.company.ID, f.owner.ID, TicketCreateInput{Title: "Help"})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if want == "" && ticket.AssignedTo != nil {
				t.Fatalf("expected unassigned, got %s", *ticket.AssignedTo)
			}
			if want != "" && !ticket.IsAssignedTo(want) {
				t.Fatalf("expected %s, got %v", want, ticket.AssignedTo)
			}

			events, _ := f.tickets.Events(ctx, f.company.ID, ticket.ID)
			assigned := 0
			for _, e := range events {
				if e.Type == domain.TicketEventAssigned {
					assigned++
					if e.ActorID != nil {
						t.Fatalf("auto-assignment has actor %s", *e.ActorID)
					}
				}
			}
			if tt.wantEvent && assigned != 1 || !tt.wantEvent && assigned != 0 {
				t.Fatalf("got %d ASSIGNED events", assigned)
			}
		})
	}
}

func TestNoOpChangesEmitNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket, err := f.tickets.Create(ctx, f.company.ID, f.owner.ID, TicketCreateInput{Title: "Same"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before, _ := f.tickets.Events(ctx, f.company.ID, ticket.ID)
	sent := len(f.notifier.messages())

	if _, err := f.tickets.ChangeStatus(ctx, f.company.ID, f.owner.ID, ticket.ID, ticket.Status); err != nil {
		t.Fatalf("change status: %v", err)
	}
	if _, err := f.tickets.ChangePriority(ctx, f.company.ID, f.owner.ID, ticket.ID, ticket.Priority); err != nil {
		t.Fatalf("change priority: %v", err)
	}
	if _, err := f.tickets.MoveToColumn(ctx, f.company.ID, f.owner.ID, ticket.ID, ticket.Status); err != nil {
		t.Fatalf("move: %v", err)
	}

	after, _ := f.tickets.Events(ctx, f.company.ID, ticket.ID)
	if len(after) != len(before) {
		t.Fatalf("events grew from %d to %d", len(before), len(after))
	}
	if got := len(f.notifier.messages()); got != sent {
		t.Fatalf("notifications grew from %d to %d", sent, got)
	}
}

func TestUpdateEmitsEventsAndOneNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket, _ := f.tickets.Create(ctx, f.company.ID, f.owner.ID, TicketCreateInput{Title: "Both"})
	sent := len(f.notifier.messages())

	updated, err := f.tickets.Update(ctx, f.company.ID, f.owner.ID, ticket.ID, domain.TicketUpdate{
		Status:   ptr(domain.TicketStatusInProgress),
		Priority: ptr(domain.TicketPriorityHigh),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress || updated.Priority != domain.TicketPriorityHigh {
		t.Fatalf("unexpected ticket %+v", updated)
	}
	if updated.Order != 1 {
		t.Fatalf("order in new column = %d, want 1", updated.Order)
	}

	msgs := f.notifier.messages()[sent:]
	if len(msgs) != 1 {
		t.Fatalf("got %d notifications, want 1", len(msgs))
	}
	want := "Status: OPEN → IN_PROGRESS / Priority: MEDIUM → HIGH"
	if msgs[0].Body != want {
		t.Fatalf("body = %q, want %q", msgs[0].Body, want)
	}
}

func TestMoveToColumnRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket, _ := f.tickets.Create(ctx, f.company.ID, f.owner.ID, TicketCreateInput{Title: "x"})

	_, err := f.tickets.MoveToColumn(ctx, f.company.ID, f.owner.ID, ticket.ID, "ARCHIVED")
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReorderColumn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		ticket, err := f.tickets.Create(ctx, f.company.ID, f.owner.ID, TicketCreateInput{Title: title})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, ticket.ID)
	}
	order := []string{ids[2], ids[0], ids[1]}

	for i := 0; i < 2; i++ {
		if err := f.tickets.ReorderColumn(ctx, f.company.ID, domain.TicketStatusOpen, order); err != nil {
			t.Fatalf("reorder #%d: %v", i, err)
		}
		for want, id := range order {
			ticket, _ := f.tickets.Get(ctx, f.company.ID, id)
			if ticket.Order != want {
				t.Fatalf("reorder #%d: %s order = %d, want %d", i, id, ticket.Order, want)
			}
		}
	}

	board, err := f.tickets.Board(ctx, f.company.ID)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if len(board) != 5 || board[0].Status != domain.TicketStatusOpen || board[0].Count != 3 {
		t.Fatalf("unexpected board %+v", board)
	}
	for i, ticket := range board[0].Tickets {
		if ticket.ID != order[i] {
			t.Fatalf("board position %d = %s, want %s", i, ticket.ID, order[i])
		}
	}
}

func TestReorderColumnRejectsForeignIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.otherCompany(t)

	a, _ := f.tickets.Create(ctx, f.company.ID, f.owner.ID, TicketCreateInput{Title: "a"})
	b, _ := f.tickets.Create(ctx, f.company.ID, f.owner.ID, TicketCreateInput{Title: "b"})
	moved, _ := f.tickets.Create(ctx, f.company.ID, f.owner.ID, TicketCreateInput{Title: "moved"})
	if _, err := f.tickets.MoveToColumn(ctx, f.company.ID, f.owner.ID, moved.ID, domain.TicketStatusWaiting); err != nil {
		t.Fatalf("move: %v", err)
	}

	tests := []struct {
		name string
		ids  []string
	}{
		{name: "other column", ids: []string{b.ID, a.ID, moved.ID}},
		{name: "unknown id", ids: []string{b.ID, "00000000-0000-0000-0000-000000000000"}},
		{name: "duplicate id", ids: []string{b.ID, b.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.tickets.ReorderColumn(ctx, f.company.ID, domain.TicketStatusOpen, tt.ids)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			for id, want := range map[string]int{a.ID: a.Order, b.ID: b.Order} {
				got, _ := f.tickets.Get(ctx, f.company.ID, id)
				if got.Order != want {
					t.Fatalf("order of %s changed to %d", id, got.Order)
				}
			}
		})
	}

	foreign, _ := f.tickets.Create(ctx, other.ID, f.owner.ID, TicketCreateInput{Title: "theirs"})
	err := f.tickets.ReorderColumn(ctx, f.company.ID, domain.TicketStatusOpen, []string{a.ID, b.ID, foreign.ID})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCrossTenantTicketIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.otherCompany(t)
	theirs, _ := f.tickets.Create(ctx, other.ID, f.owner.ID, TicketCreateInput{Title: "secret"})

	calls := map[string]func() error{
		"get": func() error {
			_, err := f.tickets.Get(ctx, f.company.ID, theirs.ID)
			return err
		},
		"status": func() error {
			_, err := f.tickets.ChangeStatus(ctx, f.company.ID, f.owner.ID, theirs.ID, domain.TicketStatusClosed)
			return err
		},
		"comment": func() error {
			_, err := f.tickets.AddComment(ctx, f.company.ID, f.owner.ID, theirs.ID, "hi")
			return err
		},
		"events": func() error {
			_, err := f.tickets.Events(ctx, f.company.ID, theirs.ID)
			return err
		},
	}
	for name, call := range calls {
		if err := call(); !apperrors.HasCode(err, apperrors.CodeNotFound) {
			t.Fatalf("%s: expected not found, got %v", name, err)
		}
	}
	if _, err := f.tickets.Get(ctx, f.company.ID, "not-a-uuid"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCommentsAndAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.member(t, "Ana", "ana@example.com", domain.RoleMember)
	ticket, _ := f.tickets.Create(ctx, f.company.ID, author.ID, TicketCreateInput{Title: "Doc"})
	sent := len(f.notifier.messages())

	if _, err := f.tickets.AddComment(ctx, f.company.ID, author.ID, ticket.ID, strings.Repeat("x", 200)); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := f.tickets.AddAttachment(ctx, f.company.ID, author.ID, ticket.ID, "s3://bucket/log.txt"); err != nil {
		t.Fatalf("attachment: %v", err)
	}
	if _, err := f.tickets.AddComment(ctx, f.company.ID, author.ID, ticket.ID, " "); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	comments, _ := f.tickets.Comments(ctx, f.company.ID, ticket.ID)
	attachments, _ := f.tickets.Attachments(ctx, f.company.ID, ticket.ID)
	if len(comments) != 1 || len(attachments) != 1 {
		t.Fatalf("got %d comments, %d attachments", len(comments), len(attachments))
	}

	events, _ := f.tickets.Events(ctx, f.company.ID, ticket.ID)
	if events[0].Type != domain.TicketEventAttachmentAdded || events[0].Message != "Attachment added: s3://bucket/log.txt" {
		t.Fatalf("unexpected newest event %+v", events[0])
	}
	if events[1].Type != domain.TicketEventCommentAdded || events[1].Message != "Comment by Ana: "+strings.Repeat("x", 120) {
		t.Fatalf("unexpected comment event %q", events[1].Message)
	}

	msgs := f.notifier.messages()[sent:]
	if len(msgs) != 2 {
		t.Fatalf("got %d notifications, want 2", len(msgs))
	}
	// admin owner and creator
	if len(msgs[0].Recipients) != 2 {
		t.Fatalf("recipients = %v", msgs[0].Recipients)
	}
}

func TestListIsTenantScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.otherCompany(t)
	if _, err := f.tickets.Create(ctx, other.ID, f.owner.ID, TicketCreateInput{Title: "globex"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := f.tickets.List(ctx, f.company.ID, TicketListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("listed %d foreign tickets", len(list))
	}
}
