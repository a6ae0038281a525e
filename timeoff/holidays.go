package timeoff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
)

const holidaySubject = "holiday"

// ListHolidays returns the holidays for branch plus company-wide ones, or
// every holiday when branch is empty.
func (s *Service) ListHolidays(ctx context.Context, branch string) ([]generic.Holiday, error) {
	return s.repo.ListHolidays(ctx, strings.TrimSpace(branch))
}

// CreateHoliday adds a holiday.
func (s *Service) CreateHoliday(ctx context.Context, in HolidayInput) (*generic.Holiday, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Branch = strings.TrimSpace(in.Branch)
	if err := generic.Validate(in); err != nil {
		return nil, err
	}
	date, _ := generic.ParseDate(in.Date)
	h := generic.Holiday{
		ID:        uuid.NewString(),
		Branch:    in.Branch,
		Date:      date,
		Name:      in.Name,
		Recurring: in.Recurring,
	}
	if err := s.repo.SaveHoliday(ctx, h); err != nil {
		return nil, err
	}
	generic.Record(ctx, s.audit, generic.AuditCreated, holidaySubject, h.ID, map[string]any{
		"date": h.Date.String(),
		"name": h.Name,
	})
	notify.Publish(ctx, s.bus, notify.TopicLeave)
	return &h, nil
}

// DeleteHoliday removes a holiday.
func (s *Service) DeleteHoliday(ctx context.Context, id string) error {
	if err := s.repo.DeleteHoliday(ctx, id); err != nil {
		return err
	}
	generic.Record(ctx, s.audit, generic.AuditDeleted, holidaySubject, id, nil)
	notify.Publish(ctx, s.bus, notify.TopicLeave)
	return nil
}

// AddDefaults adds the England and Wales bank holidays for year, company
// wide. Holidays that already exist are left alone, so calling it twice is
// harmless. Returns the number added.
func (s *Service) AddDefaults(ctx context.Context, year int) (int, error) {
	if year < 1900 || year > 2200 {
		return 0, generic.NewValidationError("year", "must be between 1900 and 2200")
	}
	existing, err := s.repo.ListHolidays(ctx, "")
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, h := range existing {
		have[h.Branch+"|"+h.Date.String()] = true
	}

	added := 0
	for _, d := range BankHolidays(year) {
		if have["|"+d.Date.String()] {
			continue
		}
		d.ID = fmt.Sprintf("holiday-%04d%02d%02d", d.Date.Year(), d.Date.Month(), d.Date.Day())
		if err := s.repo.SaveHoliday(ctx, d); err != nil {
			if errors.Is(err, generic.ErrConflict) {
				continue
			}
			return added, err
		}
		added++
	}

	if added > 0 {
		generic.Record(ctx, s.audit, generic.AuditImported, holidaySubject, "", map[string]any{
			"year":  year,
			"added": added,
		})
		notify.Publish(ctx, s.bus, notify.TopicLeave)
	}
	return added, nil
}

// BankHolidays returns the England and Wales bank holidays for year with
// weekend substitution applied. Special one-off holidays are not included.
func BankHolidays(year int) []generic.Holiday {
	easter := EasterSunday(year)
	christmas, boxing := christmasDays(year)

	list := []generic.Holiday{
		{Date: substitute(generic.NewTimePoint(year, time.January, 1)), Name: "New Year's Day"},
		{Date: easter.AddDays(-2), Name: "Good Friday"},
		{Date: easter.AddDays(1), Name: "Easter Monday"},
		{Date: firstMonday(year, time.May), Name: "Early May bank holiday"},
		{Date: lastMonday(year, time.May), Name: "Spring bank holiday"},
		{Date: lastMonday(year, time.August), Name: "Summer bank holiday"},
		{Date: christmas, Name: "Christmas Day"},
		{Date: boxing, Name: "Boxing Day"},
	}
	return list
}

// EasterSunday computes the Gregorian Easter date.
func EasterSunday(year int) generic.TimePoint {
	a := year % 19
	b, c := year/100, year%100
	d, e := b/4, b%4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i, k := c/4, c%4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return generic.NewTimePoint(year, time.Month(month), day)
}

// substitute moves a weekend date to the following Monday.
func substitute(d generic.TimePoint) generic.TimePoint {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDays(2)
	case time.Sunday:
		return d.AddDays(1)
	}
	return d
}

// christmasDays returns the observed Christmas and Boxing Day. When either
// falls on a weekend the substitute days follow on the next free weekdays.
func christmasDays(year int) (christmas, boxing generic.TimePoint) {
	christmas = generic.NewTimePoint(year, time.December, 25)
	boxing = christmas.AddDays(1)
	switch christmas.Weekday() {
	case time.Friday:
		boxing = christmas.AddDays(3)
	case time.Saturday:
		christmas, boxing = christmas.AddDays(2), christmas.AddDays(3)
	case time.Sunday:
		christmas = christmas.AddDays(2)
	}
	return christmas, boxing
}

func firstMonday(year int, month time.Month) generic.TimePoint {
	d := generic.NewTimePoint(year, month, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDays(1)
	}
	return d
}

func lastMonday(year int, month time.Month) generic.TimePoint {
	d := generic.NewTimePoint(year, month+1, 1).AddDays(-1)
	for d.Weekday() != time.Monday {
		d = d.AddDays(-1)
	}
	return d
}

// calendar loads the holidays that apply to branch.
func (s *Service) calendar(ctx context.Context, branch string) (generic.HolidayCalendar, error) {
	holidays, err := s.repo.ListHolidays(ctx, branch)
	if err != nil {
		return nil, err
	}
	return generic.HolidayList(holidays), nil
}
