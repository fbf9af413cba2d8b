package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/example/carpool-matching/internal/clock"
	"github.com/example/carpool-matching/internal/geo"
	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/storage"
)

func user(name string, role models.Role, sx, sy float64, st string, ex, ey float64, et string) models.Participant {
	s, err := clock.Parse(st)
	if err != nil {
		panic(err)
	}
	e, err := clock.Parse(et)
	if err != nil {
		panic(err)
	}
	return models.Participant{
		Name:      name,
		Start:     geo.Point{X: sx, Y: sy},
		End:       geo.Point{X: ex, Y: ey},
		StartTime: s,
		EndTime:   e,
		Role:      role,
	}
}

func names(ps []models.Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func sameNames(t *testing.T, got []models.Participant, want ...string) {
	t.Helper()
	g := names(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

type failingPool struct{}

func (failingPool) Snapshot(context.Context) (storage.Snapshot, error) {
	return storage.Snapshot{}, errors.New("redis down")
}

func TestRiderFitsDriverScenario(t *testing.T) {
	d := user("Dana", models.RoleDriver, 0, 0, "08:00", 10, 0, "17:00")
	r := user("Rui", models.RoleRider, 5, 0, "08:20", 12, 0, "17:10")
	if !RiderFitsDriver(d, r) {
		t.Fatal("expected rider to fit driver")
	}
	if !DriverFitsRider(r, d) {
		t.Fatal("expected driver to fit rider")
	}
}

func TestDistanceBoundariesInclusive(t *testing.T) {
	d := user("Dana", models.RoleDriver, 0, 0, "08:00", 0, 0, "17:00")
	cases := []struct {
		name string
		r    models.Participant
		want bool
	}{
		{"start exactly 25", user("Rui", models.RoleRider, 15, 20, "08:00", 0, 0, "17:00"), true},
		{"start past 25", user("Rui", models.RoleRider, 25, 1, "08:00", 0, 0, "17:00"), false},
		{"end exactly 50", user("Rui", models.RoleRider, 0, 0, "08:00", 30, 40, "17:00"), true},
		{"end past 50", user("Rui", models.RoleRider, 0, 0, "08:00", 50, 1, "17:00"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := RiderFitsDriver(d, c.r); got != c.want {
				t.Fatalf("RiderFitsDriver = %v, want %v", got, c.want)
			}
			if got := DriverFitsRider(c.r, d); got != c.want {
				t.Fatalf("DriverFitsRider = %v, want %v", got, c.want)
			}
		})
	}
}

func TestRiderFitsDriverTimeWindows(t *testing.T) {
	d := user("Dana", models.RoleDriver, 0, 0, "08:00", 0, 0, "17:00")
	cases := []struct {
		start, end string
		want       bool
	}{
		{"07:30", "17:00", true},  // 30 early
		{"07:29", "17:00", false}, // 31 early
		{"09:00", "17:00", true},  // 60 late
		{"09:01", "17:00", false}, // 61 late
		{"08:00", "16:00", true},  // end 60 early
		{"08:00", "15:59", false}, // end 61 early
		{"08:00", "17:30", true},  // end 30 late
		{"08:00", "17:31", false}, // end 31 late
	}
	for _, c := range cases {
		r := user("Rui", models.RoleRider, 0, 0, c.start, 0, 0, c.end)
		if got := RiderFitsDriver(d, r); got != c.want {
			t.Errorf("rider %s-%s: got %v, want %v", c.start, c.end, got, c.want)
		}
	}
}

func TestDriverFitsRiderTimeWindows(t *testing.T) {
	r := user("Rui", models.RoleRider, 0, 0, "08:00", 0, 0, "17:00")
	cases := []struct {
		start, end string
		want       bool
	}{
		{"07:00", "17:00", true},  // driver starts 60 before
		{"06:59", "17:00", false}, // 61 before
		{"08:30", "17:00", true},  // 30 after
		{"08:31", "17:00", false}, // 31 after
		{"08:00", "16:30", true},  // driver ends 30 before
		{"08:00", "16:29", false}, // 31 before
		{"08:00", "18:00", true},  // 60 after
		{"08:00", "18:01", false}, // 61 after
	}
	for _, c := range cases {
		d := user("Dana", models.RoleDriver, 0, 0, c.start, 0, 0, c.end)
		if got := DriverFitsRider(r, d); got != c.want {
			t.Errorf("driver %s-%s: got %v, want %v", c.start, c.end, got, c.want)
		}
	}
}

func TestTimeWindowAcrossMidnight(t *testing.T) {
	d := user("Dana", models.RoleDriver, 0, 0, "23:50", 0, 0, "23:55")
	r := user("Rui", models.RoleRider, 0, 0, "00:20", 0, 0, "00:10")
	// rider start reads as "before" the driver, so the 30 minute early
	// tolerance applies to the forward gap of 1410 minutes.
	if RiderFitsDriver(d, r) {
		t.Fatal("expected no fit across midnight")
	}
}

func TestPredicatesAgreeAcrossDirections(t *testing.T) {
	times := []string{"00:05", "07:00", "07:31", "08:00", "08:29", "09:00", "09:01", "23:40"}
	d := user("Dana", models.RoleDriver, 0, 0, "08:00", 0, 0, "08:00")
	for _, st := range times {
		for _, et := range times {
			r := user("Rui", models.RoleRider, 3, 4, st, 6, 8, et)
			if RiderFitsDriver(d, r) != DriverFitsRider(r, d) {
				t.Fatalf("predicates disagree for rider %s-%s", st, et)
			}
		}
	}
}

func TestFitsRequiresOppositeRoles(t *testing.T) {
	a := user("Ann", models.RoleDriver, 0, 0, "08:00", 0, 0, "17:00")
	b := user("Bo", models.RoleDriver, 0, 0, "08:00", 0, 0, "17:00")
	c := user("Cy", models.RoleRider, 0, 0, "08:00", 0, 0, "17:00")
	if Fits(a, b) {
		t.Fatal("drivers must not match drivers")
	}
	if Fits(c, c) {
		t.Fatal("riders must not match riders")
	}
	if !Fits(a, c) || !Fits(c, a) {
		t.Fatal("expected cross-role fit")
	}
}

func TestRankOrdering(t *testing.T) {
	subject := user("Dana", models.RoleDriver, 0, 0, "08:00", 0, 0, "17:00")
	cands := []models.Participant{
		user("Far", models.RoleRider, 10, 0, "08:00", 0, 0, "17:00"),
		user("Late", models.RoleRider, 1, 0, "08:30", 0, 0, "17:00"),
		user("Bob", models.RoleRider, 1, 0, "08:10", 0, 0, "17:00"),
		user("Anna", models.RoleRider, 1, 0, "08:10", 0, 0, "17:00"),
		user("Near", models.RoleRider, 0, 0, "08:59", 0, 0, "17:00"),
	}
	got := Rank(subject, cands)
	sameNames(t, got, "Near", "Anna", "Bob", "Late", "Far")
	if cands[0].Name != "Far" {
		t.Fatal("Rank modified its input")
	}
}

func TestRankNameTieBreakIsCaseSensitive(t *testing.T) {
	subject := user("Dana", models.RoleDriver, 0, 0, "08:00", 0, 0, "17:00")
	cands := []models.Participant{
		user("anna", models.RoleRider, 0, 0, "08:00", 0, 0, "17:00"),
		user("Bob", models.RoleRider, 0, 0, "08:00", 0, 0, "17:00"),
	}
	sameNames(t, Rank(subject, cands), "Bob", "anna")
}

func TestRankStableForDuplicates(t *testing.T) {
	subject := user("Dana", models.RoleDriver, 0, 0, "08:00", 0, 0, "17:00")
	first := user("Sam", models.RoleRider, 1, 1, "08:00", 2, 2, "17:00")
	second := first
	second.Role = models.RoleDriver
	got := Rank(subject, []models.Participant{first, second})
	if got[0].Role != models.RoleRider || got[1].Role != models.RoleDriver {
		t.Fatalf("duplicate keys reordered: %v", got)
	}
}

func TestRankTemporalCostIsForward(t *testing.T) {
	subject := user("Dana", models.RoleDriver, 0, 0, "08:00", 0, 0, "17:00")
	early := user("Early", models.RoleRider, 0, 0, "07:50", 0, 0, "17:00")
	late := user("Late", models.RoleRider, 0, 0, "08:50", 0, 0, "17:00")
	if c := CostOf(subject, early); c.Temporal != 1430 {
		t.Fatalf("expected wrap-forward cost 1430, got %d", c.Temporal)
	}
	sameNames(t, Rank(subject, []models.Participant{early, late}), "Late", "Early")
}

func TestRankIdempotent(t *testing.T) {
	subject := user("Dana", models.RoleRider, 3, 3, "08:00", 9, 9, "17:00")
	var cands []models.Participant
	for i, n := range []string{"Gus", "Ali", "Zoe", "Max", "Eve", "Bea"} {
		cands = append(cands, user(n, models.RoleDriver, float64(i%3), float64(i%2), "08:1"+string(rune('0'+i%4)), 9, float64(i), "17:00"))
	}
	once := Rank(subject, cands)
	twice := Rank(subject, once)
	sameNames(t, twice, names(once)...)
}

func TestRankEmpty(t *testing.T) {
	got := Rank(user("Dana", models.RoleDriver, 0, 0, "08:00", 0, 0, "17:00"), nil)
	if len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestRecommendFiltersAndRanks(t *testing.T) {
	d := user("Dana", models.RoleDriver, 0, 0, "08:00", 10, 0, "17:00")
	pool := []models.Participant{
		d,
		user("Otto", models.RoleDriver, 0, 0, "08:00", 10, 0, "17:00"),
		user("Rui", models.RoleRider, 5, 0, "08:20", 12, 0, "17:10"),
		user("Ada", models.RoleRider, 1, 0, "08:00", 10, 0, "17:00"),
		user("Tardy", models.RoleRider, 1, 0, "10:00", 10, 0, "17:00"),
		user("Remote", models.RoleRider, 90, 0, "08:00", 10, 0, "17:00"),
	}
	sameNames(t, Recommend(d, pool), "Ada", "Rui")
	if got := Recommend(d, nil); len(got) != 0 {
		t.Fatalf("expected no matches from empty pool, got %v", got)
	}
}

func TestRecommendWithDisruptionsReturnsOriginals(t *testing.T) {
	d := user("Dana", models.RoleDriver, 0, 0, "08:00", 100, 0, "17:00")
	r := user("Rui", models.RoleRider, 5, 0, "09:30", 100, 0, "17:00")
	pool := []models.Participant{d, r}
	if got := Recommend(d, pool); len(got) != 0 {
		t.Fatalf("expected no plain match, got %v", names(got))
	}
	zones := []models.DisruptionZone{{ID: "z", Center: geo.Point{X: 5, Y: 0}, Radius: 1, DelayMins: 40}}
	got := RecommendWithDisruptions(d, pool, zones)
	sameNames(t, got, "Rui")
	if got[0].StartTime.String() != "09:30" {
		t.Fatalf("expected original start time, got %s", got[0].StartTime)
	}
	if pool[1].StartTime.String() != "09:30" {
		t.Fatal("pool mutated")
	}
}

func TestRecommendWithoutZonesMatchesPlain(t *testing.T) {
	d := user("Dana", models.RoleRider, 0, 0, "08:00", 10, 0, "17:00")
	pool := []models.Participant{
		d,
		user("Ben", models.RoleDriver, 5, 0, "08:20", 12, 0, "17:10"),
		user("Al", models.RoleDriver, 2, 0, "07:20", 12, 0, "17:10"),
		user("Cat", models.RoleDriver, 2, 0, "06:20", 12, 0, "17:10"),
	}
	sameNames(t, RecommendWithDisruptions(d, pool, nil), names(Recommend(d, pool))...)
}

func TestServiceRecommend(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	for _, p := range []models.Participant{
		user("Dana", models.RoleDriver, 0, 0, "08:00", 100, 0, "17:00"),
		user("Rui", models.RoleRider, 5, 0, "09:30", 100, 0, "17:00"),
		user("Ada", models.RoleRider, 1, 0, "08:00", 100, 0, "17:00"),
	} {
		if err := store.CreateParticipant(ctx, p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	_ = store.AddDisruption(ctx, models.DisruptionZone{ID: "z", Center: geo.Point{X: 5, Y: 0}, Radius: 1, DelayMins: 40})
	s := &Service{Pool: store}

	plain, err := s.Recommend(ctx, "Dana", false)
	if err != nil {
		t.Fatalf("plain: %v", err)
	}
	sameNames(t, plain, "Ada")

	disrupted, err := s.Recommend(ctx, "Dana", true)
	if err != nil {
		t.Fatalf("disrupted: %v", err)
	}
	sameNames(t, disrupted, "Ada", "Rui")

	if _, err := s.Recommend(ctx, "Nobody", false); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	forAda, err := s.Recommend(ctx, "Ada", false)
	if err != nil {
		t.Fatalf("rider: %v", err)
	}
	if forAda == nil {
		t.Fatal("expected empty non-nil slice")
	}
	sameNames(t, forAda, "Dana")

	many, err := s.RecommendMany(ctx, []string{"Dana", "Ghost"})
	if err != nil {
		t.Fatalf("many: %v", err)
	}
	if _, ok := many["Ghost"]; ok {
		t.Fatal("unknown names should be skipped")
	}
	sameNames(t, many["Dana"], "Ada", "Rui")
}

func TestServicePropagatesSnapshotError(t *testing.T) {
	s := &Service{Pool: failingPool{}}
	if _, err := s.Recommend(context.Background(), "Dana", false); err == nil {
		t.Fatal("expected error")
	}
}
