package screens

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nhle/crm-console/internal/listing"
	"github.com/nhle/crm-console/internal/model"
	"github.com/nhle/crm-console/internal/theme"
)

const dateLayout = "Jan 02, 2006"

// humanLabel turns an enum value like "in_progress" into "In progress".
func humanLabel(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "_", " ")
	return strings.ToUpper(v[:1]) + v[1:]
}

func statusBadge(status string) string {
	return theme.StatusStyle(status).Render(humanLabel(status))
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "—"
	}
	return t.Format(dateLayout)
}

func relative(t *time.Time, now func() time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return humanize.RelTime(*t, now(), "ago", "from now")
}

func clientColumns() []listing.Column[model.Client] {
	return []listing.Column[model.Client]{
		{Label: "Name", Render: func(c model.Client) string { return c.Name }},
		{Label: "Company", Render: func(c model.Client) string { return orDash(c.Company) }},
		{Label: "Email", Class: "muted", Render: func(c model.Client) string { return orDash(c.Email) }},
		{Label: "Industry", Width: 12, Render: func(c model.Client) string { return humanLabel(c.Industry) }},
		{Label: "Status", Width: 10, Class: "badge", Render: func(c model.Client) string { return statusBadge(c.Status) }},
		{Label: "Created", Width: 14, Class: "muted", Render: func(c model.Client) string { return formatDate(&c.CreatedAt) }},
	}
}

func projectColumns() []listing.Column[model.Project] {
	return []listing.Column[model.Project]{
		{Label: "Name", Render: func(p model.Project) string { return p.Name }},
		{Label: "Client", Render: func(p model.Project) string { return orDash(p.ClientName) }},
		{Label: "Status", Width: 11, Class: "badge", Render: func(p model.Project) string { return statusBadge(p.Status) }},
		{Label: "Budget", Width: 12, Render: func(p model.Project) string {
			return "$" + humanize.Commaf(p.Budget)
		}},
		{Label: "Due", Width: 14, Render: func(p model.Project) string { return formatDate(p.DueDate) }},
	}
}

func taskColumns(now func() time.Time) []listing.Column[model.Task] {
	return []listing.Column[model.Task]{
		{Label: "Title", Render: func(t model.Task) string { return t.Title }},
		{Label: "Project", Render: func(t model.Task) string { return orDash(t.ProjectName) }},
		{Label: "Assignee", Class: "muted", Render: func(t model.Task) string { return orDash(t.AssigneeName) }},
		{Label: "Status", Width: 13, Class: "badge", Render: func(t model.Task) string { return statusBadge(t.Status) }},
		{Label: "Priority", Width: 10, Render: func(t model.Task) string {
			return theme.PriorityStyle(t.Priority).Render(humanLabel(t.Priority))
		}},
		{Label: "Due", Width: 14, Render: func(t model.Task) string {
			due := formatDate(t.DueDate)
			if t.IsOverdue(now()) {
				return theme.ErrorStyle.Render(due)
			}
			return due
		}},
	}
}

func userColumns(now func() time.Time) []listing.Column[model.User] {
	return []listing.Column[model.User]{
		{Label: "Name", Render: func(u model.User) string { return u.Name }},
		{Label: "Email", Class: "muted", Render: func(u model.User) string { return u.Email }},
		{Label: "Role", Width: 9, Render: func(u model.User) string { return humanLabel(u.Role) }},
		{Label: "Active", Width: 7, Render: func(u model.User) string {
			if u.Active {
				return "yes"
			}
			return "no"
		}},
		{Label: "Last login", Width: 16, Class: "muted", Render: func(u model.User) string {
			return relative(u.LastLoginAt, now)
		}},
	}
}

func leadColumns() []listing.Column[model.Lead] {
	return []listing.Column[model.Lead]{
		{Label: "Name", Render: func(l model.Lead) string { return l.Name }},
		{Label: "Company", Render: func(l model.Lead) string { return orDash(l.Company) }},
		{Label: "Subject", Class: "muted", Render: func(l model.Lead) string { return orDash(l.Subject) }},
		{Label: "Source", Width: 9, Render: func(l model.Lead) string { return humanLabel(l.Source) }},
		{Label: "Status", Width: 11, Class: "badge", Render: func(l model.Lead) string { return statusBadge(l.Status) }},
		{Label: "Received", Width: 14, Class: "muted", Render: func(l model.Lead) string { return formatDate(&l.CreatedAt) }},
	}
}

func activityColumns(now func() time.Time) []listing.Column[model.ActivityLog] {
	return []listing.Column[model.ActivityLog]{
		{Label: "When", Width: 16, Class: "muted", Render: func(a model.ActivityLog) string {
			return relative(&a.CreatedAt, now)
		}},
		{Label: "User", Width: 18, Render: func(a model.ActivityLog) string { return a.UserName }},
		{Label: "Action", Width: 9, Render: func(a model.ActivityLog) string { return a.Action }},
		{Label: "Description", Class: "truncate", Render: func(a model.ActivityLog) string { return a.Description }},
	}
}
