package models

import (
	"fmt"
	"strings"
	"time"
)

// Status 任务状态
type Status string

const (
	StatusTodo     Status = "todo"
	StatusDoing    Status = "doing"
	StatusDone     Status = "done"
	StatusArchived Status = "archived"
)

// Statuses 按序号排列
var Statuses = []Status{StatusTodo, StatusDoing, StatusDone, StatusArchived}

func (s Status) Valid() bool {
	return s.Ordinal() > 0
}

// Ordinal 从 1 开始，未知值为 0
func (s Status) Ordinal() int {
	for i, v := range Statuses {
		if v == s {
			return i + 1
		}
	}
	return 0
}

// Priority 任务优先级
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities 按 Rank 排列（越靠前越紧急）
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow}

// fallbackPriorityRank 用于未知值以及 low
const fallbackPriorityRank = 4

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// Rank urgent=1, high=2, normal=3, 其余=4
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 1
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 3
	default:
		return fallbackPriorityRank
	}
}

// PriorityRankSQL 生成按 Rank 排序的 CASE 表达式
func PriorityRankSQL(column string) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for _, p := range Priorities {
		if p.Rank() == fallbackPriorityRank {
			continue
		}
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p, p.Rank())
	}
	fmt.Fprintf(&b, " ELSE %d END", fallbackPriorityRank)
	return b.String()
}

// StatusOrdinalSQL 生成按状态序号排序的 CASE 表达式
func StatusOrdinalSQL(column string) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for _, s := range Statuses {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", s, s.Ordinal())
	}
	fmt.Fprintf(&b, " ELSE %d END", len(Statuses)+1)
	return b.String()
}

// DateLayout 日期的传输格式
const DateLayout = "2006-01-02"

// ParseDate 解析 YYYY-MM-DD，空字符串返回 nil
func ParseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// FormatDate 格式化为 YYYY-MM-DD
func FormatDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	s := value.UTC().Format(DateLayout)
	return &s
}

// StressWeights 压力分数的权重
type StressWeights struct {
	Overdue   float64
	WIP       float64
	Urgent    float64
	DoneToday float64
}

// DefaultStressWeights 默认权重
func DefaultStressWeights() StressWeights {
	return StressWeights{Overdue: 20, WIP: 10, Urgent: 5, DoneToday: -5}
}
