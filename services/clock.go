package services

import "time"

// Clock 提供“现在”以及按业务时区计算的日/周边界
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock 使用系统时间
func NewClock(loc *time.Location) Clock {
	return Clock{now: time.Now, loc: orUTC(loc)}
}

// FixedClock 固定在某个时刻，测试用
func FixedClock(t time.Time, loc *time.Location) Clock {
	return Clock{now: func() time.Time { return t }, loc: orUTC(loc)}
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// Now 当前时刻（UTC）
func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now().UTC()
	}
	return c.now().UTC()
}

func (c Clock) local() time.Time {
	return c.Now().In(orUTC(c.loc))
}

// Today 当前业务日期，表示为该日期的 UTC 零点（与 date 列的存储方式一致）
func (c Clock) Today() time.Time {
	y, m, d := c.local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayBounds 今天的起止时刻 [start, end)，UTC
func (c Clock) DayBounds() (time.Time, time.Time) {
	local := c.local()
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, local.Location())
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// WeekBounds 本周（周一 00:00 到周日结束）的起止时刻 [start, end)，UTC
func (c Clock) WeekBounds() (time.Time, time.Time) {
	local := c.local()
	y, m, d := local.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, local.Location())
	offset := (int(dayStart.Weekday()) + 6) % 7 // 周一为 0
	start := dayStart.AddDate(0, 0, -offset)
	return start.UTC(), start.AddDate(0, 0, 7).UTC()
}
