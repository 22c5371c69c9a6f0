// Package synthetic generates plausible swim result files and a matching
// roster for demos and load tests.
package synthetic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/okian/swimrate/pkg/logger"
)

// ErrInvalidConfig is returned when generation parameters are unusable.
var ErrInvalidConfig = errors.New("invalid generator config")

// Age range of generated careers.
const (
	minStartAge = 10
	maxStartAge = 15
	maxAge      = 18
	recruitAge  = 17
)

// Chance that a swimmer skips a season in one event.
const skipChance = 0.15

var categories = []string{"sprint", "distance", "stroke"}

var grades = []string{"A", "A-", "B+", "B", "B-", "C+"}

// strokeFactor scales the 50 freestyle base time per stroke code.
var strokeFactor = map[string]float64{
	"FR": 1.0,
	"FL": 1.08,
	"BK": 1.1,
	"IM": 1.12,
	"BR": 1.22,
}

// Swimmer is one generated athlete.
type Swimmer struct {
	Name     string
	StartAge int // age in the first season
	Category string
	// Times maps event -> season year -> seconds.
	Times map[string]map[int]float64
}

// AgeIn returns the swimmer's age in the given season year.
func (s Swimmer) AgeIn(firstYear, year int) int {
	return s.StartAge + year - firstYear
}

// Population is a generated dataset plus the roster drawn from it.
type Population struct {
	Config   Config
	Swimmers []Swimmer
	// Recruits indexes into Swimmers.
	Recruits []int
	// References holds made-up external grades for some recruits.
	References map[string]string
}

// Generator produces populations.
type Generator struct {
	cfg    Config
	faker  *gofakeit.Faker
	logger logger.Logger
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator validates cfg and returns a seeded generator.
func NewGenerator(cfg Config, opts ...Option) (*Generator, error) {
	var errs []error
	if cfg.Swimmers < 2 {
		errs = append(errs, fmt.Errorf("swimmers must be at least 2, got %d", cfg.Swimmers))
	}
	if cfg.Recruits < 0 || cfg.Recruits > cfg.Swimmers {
		errs = append(errs, fmt.Errorf("recruits must be in [0,%d], got %d", cfg.Swimmers, cfg.Recruits))
	}
	if len(cfg.Events) == 0 {
		errs = append(errs, errors.New("at least one event is required"))
	}
	for _, e := range cfg.Events {
		if _, err := baseTime(e); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.Seasons < 1 {
		errs = append(errs, fmt.Errorf("seasons must be at least 1, got %d", cfg.Seasons))
	}
	if cfg.FirstYear < 1000 || cfg.FirstYear > 9999 {
		errs = append(errs, fmt.Errorf("first year must have four digits, got %d", cfg.FirstYear))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	g := &Generator{
		cfg:    cfg,
		faker:  gofakeit.New(uint64(cfg.Seed)),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate builds a population. A Generator is not safe for concurrent use.
func (g *Generator) Generate(ctx context.Context) (*Population, error) {
	pop := &Population{
		Config:     g.cfg,
		Swimmers:   make([]Swimmer, 0, g.cfg.Swimmers),
		References: make(map[string]string),
	}
	seen := make(map[string]struct{}, g.cfg.Swimmers)
	for i := 0; i < g.cfg.Swimmers; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}
		name := g.uniqueName(seen, i)
		pop.Swimmers = append(pop.Swimmers, g.swimmer(name))
	}
	g.pickRecruits(pop)

	g.logger.Info(ctx, "population generated",
		logger.Int("swimmers", len(pop.Swimmers)),
		logger.Int("recruits", len(pop.Recruits)),
	)
	return pop, nil
}

func (g *Generator) uniqueName(seen map[string]struct{}, i int) string {
	for attempt := 0; attempt < 5; attempt++ {
		name := g.faker.LastName() + ", " + g.faker.FirstName()
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			return name
		}
	}
	name := fmt.Sprintf("%s, %s %d", g.faker.LastName(), g.faker.FirstName(), i)
	seen[name] = struct{}{}
	return name
}

func (g *Generator) swimmer(name string) Swimmer {
	s := Swimmer{
		Name:     name,
		StartAge: g.faker.IntRange(minStartAge, maxStartAge),
		Category: g.faker.RandomString(categories),
		Times:    make(map[string]map[int]float64, len(g.cfg.Events)),
	}
	ability := g.faker.Float64Range(0.9, 1.15)
	rate := g.faker.Float64Range(0.005, 0.06)
	// Younger starters swim slower in their first season.
	youth := 1 + 0.04*float64(maxStartAge-s.StartAge)

	for _, event := range g.cfg.Events {
		base, _ := baseTime(event)
		base *= ability * youth * g.faker.Float64Range(0.97, 1.03)
		times := make(map[int]float64)
		for season := 0; season < g.cfg.Seasons; season++ {
			if s.StartAge+season > maxAge {
				break
			}
			if g.faker.Float64() < skipChance {
				continue
			}
			t := base * math.Pow(1-rate, float64(season)) * (1 + g.faker.Float64Range(-0.01, 0.01))
			times[g.cfg.FirstYear+season] = math.Round(t*100) / 100
		}
		s.Times[event] = times
	}
	return s
}

// pickRecruits selects the swimmers closest to recruiting age in the last
// season and gives every third one a reference grade.
func (g *Generator) pickRecruits(pop *Population) {
	if g.cfg.Recruits == 0 {
		return
	}
	lastYear := g.cfg.FirstYear + g.cfg.Seasons - 1
	idx := make([]int, len(pop.Swimmers))
	for i := range idx {
		idx[i] = i
	}
	dist := func(i int) int {
		d := pop.Swimmers[i].AgeIn(g.cfg.FirstYear, lastYear) - recruitAge
		if d < 0 {
			return -d
		}
		return d
	}
	sort.SliceStable(idx, func(a, b int) bool { return dist(idx[a]) < dist(idx[b]) })
	pop.Recruits = idx[:g.cfg.Recruits]
	for n, i := range pop.Recruits {
		if n%3 == 0 {
			pop.References[pop.Swimmers[i].Name] = g.faker.RandomString(grades)
		}
	}
}

// baseTime estimates a strong age-15 time for an event such as "100 FL SCY".
func baseTime(event string) (float64, error) {
	fields := strings.Fields(event)
	if len(fields) < 2 {
		return 0, fmt.Errorf("event %q: want \"<distance> <stroke> ...\"", event)
	}
	distance, err := strconv.Atoi(fields[0])
	if err != nil || distance < 25 {
		return 0, fmt.Errorf("event %q: bad distance", event)
	}
	factor, ok := strokeFactor[strings.ToUpper(fields[1])]
	if !ok {
		return 0, fmt.Errorf("event %q: unknown stroke %q", event, fields[1])
	}
	// Roughly 30s per 50 with a 10% fade for every doubling beyond it.
	per50 := 30.0 * math.Pow(1.1, math.Log2(float64(distance)/50))
	return per50 * float64(distance) / 50 * factor, nil
}
