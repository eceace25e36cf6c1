package server

import (
	stderrors "errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dgarant/qed/internal/manager"
	"github.com/dgarant/qed/pkg/common/errors"
	"github.com/dgarant/qed/pkg/export"
	"github.com/dgarant/qed/pkg/facts"
	"github.com/dgarant/qed/pkg/logic"
	"github.com/dgarant/qed/pkg/report"
)

// handleProjects returns a list of available projects.
func (s *Server) handleProjects(c *gin.Context) {
	projects, err := s.manager.ListProjects()
	if err != nil {
		handleError(c, err)
		return
	}
	if projects == nil {
		projects = []manager.ProjectMetadata{}
	}
	c.JSON(http.StatusOK, projects)
}

// handlePredicates documents the schema-fact predicates the query endpoint
// understands.
func (s *Server) handlePredicates(c *gin.Context) {
	type predicate struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Example     string `json:"example"`
	}

	predicates := make([]predicate, 0, len(facts.SystemPredicates))
	for name, meta := range facts.SystemPredicates {
		predicates = append(predicates, predicate{
			Name:        name,
			Description: meta.Description,
			Example:     meta.Example,
		})
	}
	sort.Slice(predicates, func(i, j int) bool {
		return predicates[i].Name < predicates[j].Name
	})
	c.JSON(http.StatusOK, gin.H{"predicates": predicates})
}

// handleQuery evaluates a goal against the project's engine and returns the
// raw variable bindings.
func (s *Server) handleQuery(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusOK, gin.H{"results": []logic.Solution{}})
		return
	}

	session, err := s.session(c)
	if err != nil {
		handleError(c, err)
		return
	}

	results, err := session.Engine.Query(req.Query)
	if err != nil {
		handleError(c, err)
		return
	}
	if results == nil {
		results = []logic.Solution{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// handleDesigns reports the applicable quasi-experimental designs for an
// outcome attribute.
func (s *Server) handleDesigns(c *gin.Context) {
	outcome := c.Param("outcome")

	session, err := s.session(c)
	if err != nil {
		handleError(c, err)
		return
	}

	findings, err := report.NewReporter(session.Engine, nil).Findings(outcome)
	if err != nil {
		var unknown *report.UnknownOutcomeError
		if stderrors.As(err, &unknown) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":       unknown.Error(),
				"suggestions": unknown.Suggestions,
			})
			return
		}
		handleError(c, err)
		return
	}

	type design struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Treatments  []string `json:"treatments"`
	}
	designs := make([]design, 0, len(findings))
	for _, f := range findings {
		treatments := f.Treatments
		if treatments == nil {
			treatments = []string{}
		}
		designs = append(designs, design{
			Name:        f.Design.Name,
			Description: f.Design.Description,
			Treatments:  treatments,
		})
	}
	c.JSON(http.StatusOK, gin.H{"outcome": outcome, "designs": designs})
}

// handleGraph returns the project's schema graph in D3 format.
func (s *Server) handleGraph(c *gin.Context) {
	session, err := s.session(c)
	if err != nil {
		handleError(c, err)
		return
	}

	graph, err := export.BuildGraph(session.Engine)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

// session resolves the project query parameter, defaulting to the first
// available project.
func (s *Server) session(c *gin.Context) (*manager.Session, error) {
	projectID := c.Query("project")
	if projectID == "" {
		projects, err := s.manager.ListProjects()
		if err == nil && len(projects) > 0 {
			projectID = projects[0].ID
		}
	}
	if projectID == "" {
		return nil, errors.NewAppError(http.StatusBadRequest, "Missing project ID", nil)
	}
	return s.manager.GetSession(c.Request.Context(), projectID)
}

func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
