package services

import (
	"time"

	"github.com/6tail/lunar-go/HolidayUtil"
	"github.com/6tail/lunar-go/calendar"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/us"
)

// HolidayService decides whether a day counts as a working day, so reminder
// jobs stay quiet on weekends and public holidays.
type HolidayService struct {
	calendars map[string]*cal.BusinessCalendar
}

func NewHolidayService() *HolidayService {
	s := &HolidayService{
		calendars: make(map[string]*cal.BusinessCalendar),
	}
	s.calendars["US"] = s.createCalendar("United States", us.Holidays...)
	s.calendars["GB"] = s.createCalendar("United Kingdom", gb.Holidays...)
	s.calendars["DE"] = s.createCalendar("Germany", de.Holidays...)
	s.calendars["FR"] = s.createCalendar("France", fr.Holidays...)
	s.calendars["JP"] = s.createCalendar("Japan", jp.Holidays...)
	return s
}

func (s *HolidayService) createCalendar(name string, holidays ...*cal.Holiday) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.Name = name
	c.AddHoliday(holidays...)
	return c
}

// IsWorkday reports whether t is a business day in the given country.
// "CN" uses the statutory holiday/make-up-workday table; unknown codes and
// "NONE" fall back to plain weekday checks.
func (s *HolidayService) IsWorkday(t time.Time, countryCode string) bool {
	if countryCode == "CN" {
		return s.isWorkdayChina(t)
	}

	c, ok := s.calendars[countryCode]
	if !ok {
		return !cal.IsWeekend(t)
	}
	return c.IsWorkday(t)
}

// isWorkdayChina accounts for shifted working days around CN holidays.
func (s *HolidayService) isWorkdayChina(t time.Time) bool {
	solar := calendar.NewSolarFromDate(t)
	holiday := HolidayUtil.GetHolidayByYmd(solar.GetYear(), solar.GetMonth(), solar.GetDay())

	if holiday != nil {
		return holiday.IsWork()
	}

	weekday := t.Weekday()
	return weekday != time.Saturday && weekday != time.Sunday
}
