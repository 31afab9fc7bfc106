package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/crm-console/internal/model"
)

// SeedCounts reports how many rows Seed created per resource.
type SeedCounts struct {
	Clients    int
	Users      int
	Projects   int
	Tasks      int
	Leads      int
	Activities int
}

var (
	seedIndustries = []string{"retail", "finance", "healthcare", "software", "logistics"}
	seedClientStat = []string{model.ClientStatusActive, model.ClientStatusActive, model.ClientStatusProspect, model.ClientStatusInactive}
	seedProjStat   = []string{model.ProjectStatusPlanned, model.ProjectStatusActive, model.ProjectStatusOnHold, model.ProjectStatusCompleted}
	seedTaskStat   = []string{model.TaskStatusTodo, model.TaskStatusInProgress, model.TaskStatusReview, model.TaskStatusDone}
	seedPriorities = []string{model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent}
	seedLeadStat   = []string{model.LeadStatusNew, model.LeadStatusContacted, model.LeadStatusQualified, model.LeadStatusLost}
	seedLeadSource = []string{model.LeadSourceWeb, model.LeadSourceReferral, model.LeadSourceEmail}
	seedActions    = []string{"created", "updated", "deleted"}
	seedCompanies  = []string{
		"Acme", "Globex", "Initech", "Umbrella", "Hooli", "Stark Industries",
		"Wayne Enterprises", "Soylent", "Tyrell", "Wonka", "Cyberdyne", "Vandelay",
	}
	seedPeople = []string{"Ada Lovelace", "Grace Hopper", "Alan Turing", "Edsger Dijkstra", "Barbara Liskov"}
)

// Seed fills the store with deterministic demo data anchored at now.
func (s *SQLiteStore) Seed(ctx context.Context, now time.Time) (SeedCounts, error) {
	var counts SeedCounts
	day := 24 * time.Hour

	var userIDs []*int64
	for i, name := range seedPeople {
		u := model.User{
			Name:      name,
			Email:     fmt.Sprintf("user%d@example.com", i+1),
			Role:      []string{model.RoleAdmin, model.RoleManager, model.RoleMember}[i%3],
			Active:    i != len(seedPeople)-1,
			CreatedAt: now.Add(-time.Duration(90-i) * day),
		}
		if i%2 == 0 {
			last := now.Add(-time.Duration(i) * day)
			u.LastLoginAt = &last
		}
		if err := s.CreateUser(ctx, &u); err != nil {
			return counts, err
		}
		userIDs = append(userIDs, u.ID)
		counts.Users++
	}

	var clientIDs []*int64
	for i, company := range seedCompanies {
		c := model.Client{
			Name:      company + " Contact",
			Email:     fmt.Sprintf("contact@%s.example", slug(company)),
			Phone:     fmt.Sprintf("+1-555-01%02d", i),
			Company:   company,
			Industry:  seedIndustries[i%len(seedIndustries)],
			Status:    seedClientStat[i%len(seedClientStat)],
			CreatedAt: now.Add(-time.Duration(60-i*4) * day),
		}
		if err := s.CreateClient(ctx, &c); err != nil {
			return counts, err
		}
		clientIDs = append(clientIDs, c.ID)
		counts.Clients++
	}

	var projectIDs []*int64
	for i := 0; i < 8; i++ {
		due := now.Add(time.Duration(i*7-14) * day)
		p := model.Project{
			Name:        fmt.Sprintf("%s rollout", seedCompanies[i]),
			Description: "Phase " + fmt.Sprint(i%3+1),
			ClientID:    clientIDs[i],
			Status:      seedProjStat[i%len(seedProjStat)],
			Budget:      float64(5000 + i*2500),
			DueDate:     &due,
			CreatedAt:   now.Add(-time.Duration(40-i*3) * day),
		}
		if err := s.CreateProject(ctx, &p); err != nil {
			return counts, err
		}
		projectIDs = append(projectIDs, p.ID)
		counts.Projects++
	}

	for i := 0; i < 24; i++ {
		due := now.Add(time.Duration(i-8) * day)
		t := model.Task{
			Title:      fmt.Sprintf("Task %02d", i+1),
			ProjectID:  projectIDs[i%len(projectIDs)],
			AssigneeID: userIDs[i%len(userIDs)],
			Status:     seedTaskStat[i%len(seedTaskStat)],
			Priority:   seedPriorities[(i/2)%len(seedPriorities)],
			DueDate:    &due,
			CreatedAt:  now.Add(-time.Duration(30-i) * day),
		}
		if err := s.CreateTask(ctx, &t); err != nil {
			return counts, err
		}
		counts.Tasks++
	}

	for i := 0; i < 10; i++ {
		l := model.Lead{
			Name:      fmt.Sprintf("Prospect %d", i+1),
			Email:     fmt.Sprintf("prospect%d@example.org", i+1),
			Company:   seedCompanies[(i+4)%len(seedCompanies)],
			Subject:   "Pricing inquiry",
			Source:    seedLeadSource[i%len(seedLeadSource)],
			Status:    seedLeadStat[i%len(seedLeadStat)],
			CreatedAt: now.Add(-time.Duration(i*2) * day),
		}
		if _, err := s.UpsertLead(ctx, &l); err != nil {
			return counts, err
		}
		counts.Leads++
	}

	subjects := []string{"client", "project", "task"}
	for i := 0; i < 30; i++ {
		a := model.ActivityLog{
			UserName:    seedPeople[i%len(seedPeople)],
			Action:      seedActions[i%len(seedActions)],
			SubjectType: subjects[i%len(subjects)],
			Description: fmt.Sprintf("%s %s #%d", seedActions[i%len(seedActions)], subjects[i%len(subjects)], i+1),
			CreatedAt:   now.Add(-time.Duration(i) * 6 * time.Hour),
		}
		if err := s.CreateActivity(ctx, &a); err != nil {
			return counts, err
		}
		counts.Activities++
	}

	return counts, nil
}

func slug(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}
