package store

import (
	"fmt"

	"github.com/nhle/crm-console/internal/backend"
)

// filterOp says how a filter value is compared against its column.
type filterOp int

const (
	opEq filterOp = iota
	opBool
	opDateFrom
	opDateTo
)

type filterSpec struct {
	column string
	op     filterOp
}

// resourceSpec maps a listable resource onto SQL. Query keys that are not
// whitelisted here are ignored, never interpolated.
type resourceSpec struct {
	table        string
	from         string
	selects      []string
	searchable   []string
	sortable     map[string]string
	defaultOrder string
	filters      map[string]filterSpec
	boolColumns  []string
}

// isoTime renders a stored time as RFC 3339 so rows decode into time.Time.
func isoTime(expr, alias string) string {
	return fmt.Sprintf("strftime('%%Y-%%m-%%dT%%H:%%M:%%SZ', %s) AS %s", expr, alias)
}

var resources = map[string]resourceSpec{
	backend.Clients: {
		table: "clients",
		from:  "clients",
		selects: []string{
			"id", "name", "email", "phone", "company", "industry", "status",
			isoTime("created_at", "created_at"),
		},
		searchable: []string{"name", "email", "phone", "company"},
		sortable: map[string]string{
			"name":       "name",
			"company":    "company",
			"status":     "status",
			"created_at": "created_at",
		},
		defaultOrder: "created_at DESC, id DESC",
		filters: map[string]filterSpec{
			"status":       {column: "status", op: opEq},
			"industry":     {column: "industry", op: opEq},
			"created_from": {column: "created_at", op: opDateFrom},
			"created_to":   {column: "created_at", op: opDateTo},
		},
	},
	backend.Projects: {
		table: "projects",
		from:  "projects p LEFT JOIN clients c ON c.id = p.client_id",
		selects: []string{
			"p.id AS id", "p.name AS name", "p.description AS description",
			"p.client_id AS client_id", "COALESCE(c.name, '') AS client_name",
			"p.status AS status", "p.budget AS budget",
			isoTime("p.due_date", "due_date"),
			isoTime("p.created_at", "created_at"),
		},
		searchable: []string{"p.name", "p.description", "c.name"},
		sortable: map[string]string{
			"name":        "p.name",
			"client_name": "c.name",
			"status":      "p.status",
			"budget":      "p.budget",
			"due_date":    "p.due_date",
			"created_at":  "p.created_at",
		},
		defaultOrder: "p.created_at DESC, p.id DESC",
		filters: map[string]filterSpec{
			"status":    {column: "p.status", op: opEq},
			"client_id": {column: "p.client_id", op: opEq},
			"due_from":  {column: "p.due_date", op: opDateFrom},
			"due_to":    {column: "p.due_date", op: opDateTo},
		},
	},
	backend.Tasks: {
		table: "tasks",
		from: "tasks t LEFT JOIN projects p ON p.id = t.project_id " +
			"LEFT JOIN users u ON u.id = t.assignee_id",
		selects: []string{
			"t.id AS id", "t.title AS title", "t.description AS description",
			"t.project_id AS project_id", "COALESCE(p.name, '') AS project_name",
			"t.assignee_id AS assignee_id", "COALESCE(u.name, '') AS assignee_name",
			"t.status AS status", "t.priority AS priority",
			isoTime("t.due_date", "due_date"),
			isoTime("t.created_at", "created_at"),
		},
		searchable: []string{"t.title", "t.description", "p.name"},
		sortable: map[string]string{
			"title":        "t.title",
			"project_name": "p.name",
			"status":       "t.status",
			"priority": "CASE t.priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 " +
				"WHEN 'high' THEN 3 WHEN 'urgent' THEN 4 ELSE 0 END",
			"due_date":   "t.due_date",
			"created_at": "t.created_at",
		},
		defaultOrder: "t.created_at DESC, t.id DESC",
		filters: map[string]filterSpec{
			"status":      {column: "t.status", op: opEq},
			"priority":    {column: "t.priority", op: opEq},
			"project_id":  {column: "t.project_id", op: opEq},
			"assignee_id": {column: "t.assignee_id", op: opEq},
			"due_from":    {column: "t.due_date", op: opDateFrom},
			"due_to":      {column: "t.due_date", op: opDateTo},
		},
	},
	backend.Users: {
		table: "users",
		from:  "users",
		selects: []string{
			"id", "name", "email", "role", "active",
			isoTime("last_login_at", "last_login_at"),
			isoTime("created_at", "created_at"),
		},
		searchable: []string{"name", "email"},
		sortable: map[string]string{
			"name":          "name",
			"email":         "email",
			"role":          "role",
			"last_login_at": "last_login_at",
			"created_at":    "created_at",
		},
		defaultOrder: "name ASC, id ASC",
		filters: map[string]filterSpec{
			"role":   {column: "role", op: opEq},
			"active": {column: "active", op: opBool},
		},
		boolColumns: []string{"active"},
	},
	backend.Leads: {
		table: "leads",
		from:  "leads",
		selects: []string{
			"id", "name", "email", "company", "subject", "source", "status",
			"message_id", isoTime("created_at", "created_at"),
		},
		searchable: []string{"name", "email", "company", "subject"},
		sortable: map[string]string{
			"name":       "name",
			"company":    "company",
			"status":     "status",
			"created_at": "created_at",
		},
		defaultOrder: "created_at DESC, id DESC",
		filters: map[string]filterSpec{
			"status":       {column: "status", op: opEq},
			"source":       {column: "source", op: opEq},
			"created_from": {column: "created_at", op: opDateFrom},
			"created_to":   {column: "created_at", op: opDateTo},
		},
	},
	backend.ActivityLogs: {
		table: "activity_logs",
		from:  "activity_logs",
		selects: []string{
			"id", "user_name", "action", "subject_type", "description",
			isoTime("created_at", "created_at"),
		},
		searchable: []string{"user_name", "description"},
		sortable: map[string]string{
			"created_at": "created_at",
			"user_name":  "user_name",
			"action":     "action",
		},
		defaultOrder: "created_at DESC, id DESC",
		filters: map[string]filterSpec{
			"action":       {column: "action", op: opEq},
			"subject_type": {column: "subject_type", op: opEq},
			"created_from": {column: "created_at", op: opDateFrom},
			"created_to":   {column: "created_at", op: opDateTo},
		},
	},
}

func lookupResource(resource string) (resourceSpec, error) {
	spec, ok := resources[resource]
	if !ok {
		return resourceSpec{}, fmt.Errorf("unknown resource %q", resource)
	}
	return spec, nil
}
