// Package screens declares the list screen of every CRM entity: what it
// can be filtered and sorted by and how its rows are shown.
package screens

import (
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/crm-console/internal/backend"
	"github.com/nhle/crm-console/internal/keys"
	"github.com/nhle/crm-console/internal/listing"
	"github.com/nhle/crm-console/internal/model"
	"github.com/nhle/crm-console/internal/ui/listscreen"
	"github.com/nhle/crm-console/internal/ui/setup"
)

// Deps are what every screen needs to run.
type Deps struct {
	Backend  backend.Backend
	Keys     *keys.KeyMap
	Logger   *zap.Logger
	PerPage  int
	Debounce time.Duration
	Timeout  time.Duration

	// Queries holds a starting query string per resource, overriding the
	// schema's default order and filters.
	Queries map[string]string

	// Now is the clock used for overdue markers. Defaults to time.Now.
	Now func() time.Time
}

// Schema is the entity-independent part of a screen.
type Schema struct {
	Resource      string
	Title         string
	Placeholder   string
	FilterOptions []listing.FilterOption
	SortOptions   []listing.SortOption
	Setup         setup.Config

	// DefaultQuery is the order the screen opens with, written as the
	// query string the backend would echo.
	DefaultQuery string

	// Editable screens offer edit and delete on rows.
	Editable bool
}

const newestFirst = "sort=created_at&direction=desc"

// Initial reads the screen's starting snapshot from query, layered over
// DefaultQuery. A sort key the screen does not offer keeps the default
// order.
func (s Schema) Initial(query string) (listing.Snapshot, error) {
	def, err := url.ParseQuery(s.DefaultQuery)
	if err != nil {
		return listing.Snapshot{}, fmt.Errorf("parsing default query of %s: %w", s.Resource, err)
	}
	base := listing.ParseQuery(def, s.FilterOptions, listing.Snapshot{Direction: listing.Asc})

	q, err := url.ParseQuery(query)
	if err != nil {
		return base, fmt.Errorf("parsing %s query %q: %w", s.Resource, query, err)
	}
	snap := listing.ParseQuery(q, s.FilterOptions, base)
	if !s.sortable(snap.Sort) {
		snap.Sort, snap.Direction = base.Sort, base.Direction
	}
	return snap, nil
}

func (s Schema) sortable(key string) bool {
	if key == "" {
		return true
	}
	for _, opt := range s.SortOptions {
		if opt.Key == key {
			return true
		}
	}
	return false
}

func dateRange(label, from, to string) []listing.FilterOption {
	return []listing.FilterOption{
		{Label: label + " from", Key: from, Kind: listing.KindDate},
		{Label: label + " to", Key: to, Kind: listing.KindDate},
	}
}

func selectOf(label, key string, values ...string) listing.FilterOption {
	opt := listing.FilterOption{Label: label, Key: key, Kind: listing.KindSelect}
	for _, v := range values {
		opt.Options = append(opt.Options, listing.SelectOption{Label: humanLabel(v), Value: v})
	}
	return opt
}

// ClientSchema describes the clients screen.
var ClientSchema = Schema{
	Resource:     backend.Clients,
	Title:        "Clients",
	Placeholder:  "search name, email, phone, company...",
	DefaultQuery: newestFirst,
	FilterOptions: append([]listing.FilterOption{
		selectOf("Status", "status", model.ClientStatusActive, model.ClientStatusProspect, model.ClientStatusInactive),
		selectOf("Industry", "industry", "retail", "finance", "healthcare", "software", "logistics"),
	}, dateRange("Created", "created_from", "created_to")...),
	SortOptions: []listing.SortOption{
		{Label: "Name", Key: "name"},
		{Label: "Company", Key: "company"},
		{Label: "Status", Key: "status"},
		{Label: "Created", Key: "created_at"},
	},
	Setup: setup.Config{
		Description:      "Companies and people you do business with.",
		CreateLabel:      "New client",
		CreateRoute:      "clients/create",
		EmptyIcon:        "◎",
		EmptyTitle:       "No clients yet",
		EmptyDescription: "Clients you add will show up here.",
	},
	Editable: true,
}

// ProjectSchema describes the projects screen.
var ProjectSchema = Schema{
	Resource:     backend.Projects,
	Title:        "Projects",
	Placeholder:  "search name, description, client...",
	DefaultQuery: newestFirst,
	FilterOptions: append([]listing.FilterOption{
		selectOf("Status", "status", model.ProjectStatusPlanned, model.ProjectStatusActive,
			model.ProjectStatusOnHold, model.ProjectStatusCompleted),
		{Label: "Client ID", Key: "client_id", Kind: listing.KindText, Placeholder: "e.g. 3"},
	}, dateRange("Due", "due_from", "due_to")...),
	SortOptions: []listing.SortOption{
		{Label: "Name", Key: "name"},
		{Label: "Client", Key: "client_name"},
		{Label: "Status", Key: "status"},
		{Label: "Budget", Key: "budget"},
		{Label: "Due", Key: "due_date"},
		{Label: "Created", Key: "created_at"},
	},
	Setup: setup.Config{
		Description:      "Work delivered for your clients.",
		CreateLabel:      "New project",
		CreateRoute:      "projects/create",
		EmptyIcon:        "▣",
		EmptyTitle:       "No projects yet",
		EmptyDescription: "Start a project for one of your clients.",
	},
	Editable: true,
}

// TaskSchema describes the tasks screen.
var TaskSchema = Schema{
	Resource:     backend.Tasks,
	Title:        "Tasks",
	Placeholder:  "search title, description, project...",
	DefaultQuery: newestFirst,
	FilterOptions: append([]listing.FilterOption{
		selectOf("Status", "status", model.TaskStatusTodo, model.TaskStatusInProgress,
			model.TaskStatusReview, model.TaskStatusDone),
		selectOf("Priority", "priority", model.PriorityLow, model.PriorityMedium,
			model.PriorityHigh, model.PriorityUrgent),
		{Label: "Project ID", Key: "project_id", Kind: listing.KindText},
		{Label: "Assignee ID", Key: "assignee_id", Kind: listing.KindText},
	}, dateRange("Due", "due_from", "due_to")...),
	SortOptions: []listing.SortOption{
		{Label: "Title", Key: "title"},
		{Label: "Project", Key: "project_name"},
		{Label: "Status", Key: "status"},
		{Label: "Priority", Key: "priority"},
		{Label: "Due", Key: "due_date"},
		{Label: "Created", Key: "created_at"},
	},
	Setup: setup.Config{
		Description:      "Everything that needs doing, across projects.",
		CreateLabel:      "New task",
		CreateRoute:      "tasks/create",
		EmptyIcon:        "☐",
		EmptyTitle:       "No tasks yet",
		EmptyDescription: "Break a project down into tasks to track progress.",
	},
	Editable: true,
}

// UserSchema describes the users screen.
var UserSchema = Schema{
	Resource:     backend.Users,
	Title:        "Users",
	Placeholder:  "search name, email...",
	DefaultQuery: newestFirst,
	FilterOptions: []listing.FilterOption{
		selectOf("Role", "role", model.RoleAdmin, model.RoleManager, model.RoleMember),
		{Label: "Active", Key: "active", Kind: listing.KindSelect, Options: []listing.SelectOption{
			{Label: "Yes", Value: "true"},
			{Label: "No", Value: "false"},
		}},
	},
	SortOptions: []listing.SortOption{
		{Label: "Name", Key: "name"},
		{Label: "Email", Key: "email"},
		{Label: "Role", Key: "role"},
		{Label: "Last login", Key: "last_login_at"},
		{Label: "Created", Key: "created_at"},
	},
	Setup: setup.Config{
		Description:      "People with access to this workspace.",
		CreateLabel:      "Invite user",
		CreateRoute:      "users/create",
		EmptyIcon:        "☺",
		EmptyTitle:       "No users yet",
		EmptyDescription: "Invite your team to collaborate.",
	},
	Editable: true,
}

// LeadSchema describes the leads screen.
var LeadSchema = Schema{
	Resource:     backend.Leads,
	Title:        "Leads",
	Placeholder:  "search name, email, company, subject...",
	DefaultQuery: newestFirst,
	FilterOptions: append([]listing.FilterOption{
		selectOf("Status", "status", model.LeadStatusNew, model.LeadStatusContacted,
			model.LeadStatusQualified, model.LeadStatusLost),
		selectOf("Source", "source", model.LeadSourceWeb, model.LeadSourceEmail, model.LeadSourceReferral),
	}, dateRange("Received", "created_from", "created_to")...),
	SortOptions: []listing.SortOption{
		{Label: "Name", Key: "name"},
		{Label: "Company", Key: "company"},
		{Label: "Status", Key: "status"},
		{Label: "Received", Key: "created_at"},
	},
	Setup: setup.Config{
		Description:      "Prospects from the web form, referrals and your inbox.",
		CreateLabel:      "New lead",
		CreateRoute:      "leads/create",
		EmptyIcon:        "✉",
		EmptyTitle:       "No leads yet",
		EmptyDescription: "Connect a mailbox with `crm login --intake` to collect leads.",
	},
	Editable: true,
}

// ActivitySchema describes the read-only activity log.
var ActivitySchema = Schema{
	Resource:     backend.ActivityLogs,
	Title:        "Activity",
	Placeholder:  "search user, description...",
	DefaultQuery: newestFirst,
	FilterOptions: append([]listing.FilterOption{
		selectOf("Action", "action", "created", "updated", "deleted"),
		selectOf("Subject", "subject_type", "client", "project", "task"),
	}, dateRange("Date", "created_from", "created_to")...),
	SortOptions: []listing.SortOption{
		{Label: "Date", Key: "created_at"},
		{Label: "User", Key: "user_name"},
		{Label: "Action", Key: "action"},
	},
	Setup: setup.Config{
		Description:      "Who changed what, most recent first.",
		EmptyIcon:        "◷",
		EmptyTitle:       "No activity yet",
		EmptyDescription: "Changes made by your team are recorded here.",
	},
}

// Schemas returns every screen schema in tab order.
func Schemas() []Schema {
	return []Schema{ClientSchema, ProjectSchema, TaskSchema, UserSchema, LeadSchema, ActivitySchema}
}

// All builds every screen in tab order.
func All(d Deps) []listscreen.Screen {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return []listscreen.Screen{
		build(ClientSchema, clientColumns(), func(c model.Client) *int64 { return c.ID }, d),
		build(ProjectSchema, projectColumns(), func(p model.Project) *int64 { return p.ID }, d),
		build(TaskSchema, taskColumns(d.Now), func(t model.Task) *int64 { return t.ID }, d),
		build(UserSchema, userColumns(d.Now), func(u model.User) *int64 { return u.ID }, d),
		build(LeadSchema, leadColumns(), func(l model.Lead) *int64 { return l.ID }, d),
		build(ActivitySchema, activityColumns(d.Now), func(a model.ActivityLog) *int64 { return a.ID }, d),
	}
}

func build[T any](s Schema, columns []listing.Column[T], keyOf listing.KeyFunc[T], d Deps) listscreen.Screen {
	initial, err := s.Initial(d.Queries[s.Resource])
	if err != nil {
		d.Logger.Warn("ignoring starting query", zap.String("resource", s.Resource), zap.Error(err))
	}

	cfg := listscreen.Config[T]{
		Initial:       initial,
		Resource:      s.Resource,
		Title:         s.Title,
		FilterOptions: s.FilterOptions,
		SortOptions:   s.SortOptions,
		Columns:       columns,
		Key:           keyOf,
		Setup:         s.Setup,
		Placeholder:   s.Placeholder,
		PerPage:       d.PerPage,
		Debounce:      d.Debounce,
		Timeout:       d.Timeout,
		ReadOnly:      !s.Editable,
	}
	if s.Editable {
		resource := s.Resource
		cfg.EditRoute = func(id int64) string {
			return fmt.Sprintf("%s/%d/edit", resource, id)
		}
	}
	return listscreen.Erase(listscreen.New(cfg, d.Backend, d.Keys, d.Logger))
}
