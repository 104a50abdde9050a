package httpapi

import (
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saadjs/macroplan/internal/mealplan"
	"github.com/saadjs/macroplan/internal/model"
	"github.com/saadjs/macroplan/internal/service"
)

type weightLogResponse struct {
	Entries []model.WeightEntry `json:"entries"`
	Stats   model.WeightStats   `json:"stats"`
}

type dietPhaseRequest struct {
	Key              string   `json:"key" binding:"required"`
	ProteinPerKgLean *float64 `json:"protein_per_kg_lean"`
	FatPerKgBody     *float64 `json:"fat_per_kg_body"`
	CalorieOffset    *float64 `json:"calorie_offset"`
}

type analyticsWeekRequest struct {
	WeekStart    string `json:"week_start" binding:"required"`
	WeekNumber   *int   `json:"week_number"`
	Workout      *bool  `json:"workout"`
	PhaseID      *int64 `json:"phase_id"`
	PhaseKey     string `json:"phase_key"`
	DisplayWidth *int   `json:"display_width"`
}

type rebuildRequest struct {
	ResetPhases bool `json:"reset_phases"`
}

type generateRequest struct {
	Targets  *mealplan.Targets `json:"targets"`
	Seed     *int64            `json:"seed"`
	Attempts int               `json:"attempts"`
}

type saveMealPlanRequest struct {
	Plan      *mealplan.Plan `json:"plan" binding:"required"`
	PlanDate  string         `json:"plan_date"`
	WeekStart string         `json:"week_start"`
}

type saveMealPlanResponse struct {
	UUID string `json:"uuid"`
}

// profileID resolves the profile_id query parameter, falling back to the
// configured profile and then to the first stored one.
func (s *Server) profileID(c *gin.Context) (int64, bool) {
	id := s.cfg.ProfileID
	if raw := strings.TrimSpace(c.Query("profile_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.badRequest(c, fmt.Errorf("invalid profile_id %q", raw))
			return 0, false
		}
		id = parsed
	}
	resolved, err := service.ResolveProfileID(s.db, id)
	if err != nil {
		s.fail(c, err, http.StatusBadRequest)
		return 0, false
	}
	return resolved, true
}

func (s *Server) getProfile(c *gin.Context) {
	id, ok := s.profileID(c)
	if !ok {
		return
	}
	p, err := service.GetProfile(s.db, id)
	if err != nil {
		s.fail(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) listWeightLog(c *gin.Context) {
	id, ok := s.profileID(c)
	if !ok {
		return
	}
	filter := service.WeightFilter{FromDate: c.Query("from"), ToDate: c.Query("to")}
	var err error
	if filter.Days, err = queryInt(c, "days"); err != nil {
		s.badRequest(c, err)
		return
	}
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		s.badRequest(c, err)
		return
	}
	entries, err := service.ListWeightEntries(s.db, id, filter)
	if err != nil {
		s.fail(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, weightLogResponse{Entries: entries, Stats: service.SummarizeWeightEntries(entries)})
}

func (s *Server) listDietPhases(c *gin.Context) {
	id, ok := s.profileID(c)
	if !ok {
		return
	}
	phases, err := service.ListDietPhases(s.db, id)
	if err != nil {
		s.fail(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, phases)
}

func (s *Server) updateDietPhase(c *gin.Context) {
	id, ok := s.profileID(c)
	if !ok {
		return
	}
	var req dietPhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	phase, err := service.UpdateDietPhase(s.db, id, service.DietPhaseUpdate{
		Key:              req.Key,
		ProteinPerKgLean: req.ProteinPerKgLean,
		FatPerKgBody:     req.FatPerKgBody,
		CalorieOffset:    req.CalorieOffset,
	})
	if err != nil {
		s.fail(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, phase)
}

func (s *Server) listAnalytics(c *gin.Context) {
	id, ok := s.profileID(c)
	if !ok {
		return
	}
	weeks, err := service.ListAnalyticsWeeks(s.db, id, time.Now())
	if err != nil {
		s.fail(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, weeks)
}

func (s *Server) upsertAnalyticsWeek(c *gin.Context) {
	id, ok := s.profileID(c)
	if !ok {
		return
	}
	var req analyticsWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	start, err := parseDay(req.WeekStart)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	weekID, err := service.UpsertAnalyticsWeek(s.db, id, service.AnalyticsWeekInput{
		WeekStart:    start,
		WeekNumber:   req.WeekNumber,
		Workout:      req.Workout,
		PhaseID:      req.PhaseID,
		PhaseKey:     req.PhaseKey,
		DisplayWidth: req.DisplayWidth,
	})
	if err != nil {
		s.fail(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": weekID})
}

func (s *Server) rebuildAnalytics(c *gin.Context) {
	id, ok := s.profileID(c)
	if !ok {
		return
	}
	var req rebuildRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.badRequest(c, err)
			return
		}
	}
	res, err := service.RebuildWeeklySeries(s.db, id, service.RebuildOptions{ResetPhases: req.ResetPhases})
	if err != nil {
		s.fail(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) listFoods(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		s.badRequest(c, err)
		return
	}
	foods, err := service.ListFoods(s.db, service.FoodFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		MealType: c.Query("meal"),
		Limit:    limit,
	})
	if err != nil {
		s.fail(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, foods)
}

func (s *Server) generateMealPlan(c *gin.Context) {
	id, ok := s.profileID(c)
	if !ok {
		return
	}
	var req generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.badRequest(c, err)
			return
		}
	}
	opts := s.cfg.MealPlan.GenerateOptions()
	if req.Attempts > 0 {
		opts.Attempts = min(req.Attempts, s.maxAttempts())
	}
	seed := s.cfg.MealPlan.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	if seed != 0 {
		opts.Rand = rand.New(rand.NewSource(seed))
	}
	opts.Logger = s.logger
	out, err := service.GenerateMealPlan(c.Request.Context(), s.db, id, service.GenerateMealPlanRequest{
		Targets: req.Targets,
		Timeout: s.cfg.MealPlan.Timeout,
		Options: opts,
	})
	if err != nil {
		s.fail(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, out)
}

// maxAttempts bounds a request's search effort by the configured attempts.
func (s *Server) maxAttempts() int {
	if s.cfg.MealPlan.Attempts > 0 {
		return s.cfg.MealPlan.Attempts
	}
	return mealplan.DefaultAttempts
}

func (s *Server) saveMealPlan(c *gin.Context) {
	id, ok := s.profileID(c)
	if !ok {
		return
	}
	var req saveMealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	in := service.SaveMealPlanInput{}
	if req.PlanDate != "" {
		d, err := parseDay(req.PlanDate)
		if err != nil {
			s.badRequest(c, err)
			return
		}
		in.PlanDate = d
	}
	if req.WeekStart != "" {
		d, err := parseDay(req.WeekStart)
		if err != nil {
			s.badRequest(c, err)
			return
		}
		in.WeekStart = &d
	}
	planID, err := service.SaveMealPlan(s.db, id, req.Plan, in)
	if err != nil {
		s.fail(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, saveMealPlanResponse{UUID: planID})
}

// getMealPlan returns one plan when uuid is given and the recent plan list
// otherwise.
func (s *Server) getMealPlan(c *gin.Context) {
	id, ok := s.profileID(c)
	if !ok {
		return
	}
	if planID := strings.TrimSpace(c.Query("uuid")); planID != "" {
		plan, err := service.GetMealPlan(s.db, id, planID)
		if err != nil {
			s.fail(c, err, http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusOK, plan)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		s.badRequest(c, err)
		return
	}
	plans, err := service.ListMealPlans(s.db, id, limit)
	if err != nil {
		s.fail(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

func parseDay(value string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}
