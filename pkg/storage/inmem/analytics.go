package inmem

import (
	"context"
	"sort"
	"time"

	"learnhub/pkg/storage"
)

func (db *DB) CountCourses(_ context.Context) (int64, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return int64(len(db.courses)), nil
}

func (db *DB) CountEnrollments(_ context.Context) (int64, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return int64(len(db.enrollments)), nil
}

func (db *DB) CountStudents(_ context.Context) (int64, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	users := make(map[string]struct{})
	for _, e := range db.enrollments {
		users[e.UserID] = struct{}{}
	}
	return int64(len(users)), nil
}

func (db *DB) EnrollmentTrends(_ context.Context, from, to *time.Time) ([]storage.MonthlyCount, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	type ym struct{ y, m int }
	counts := make(map[ym]int64)
	for _, e := range db.enrollments {
		if from != nil && e.EnrolledAt.Before(*from) {
			continue
		}
		if to != nil && e.EnrolledAt.After(*to) {
			continue
		}
		counts[ym{e.EnrolledAt.Year(), int(e.EnrolledAt.Month())}]++
	}

	out := make([]storage.MonthlyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, storage.MonthlyCount{Year: k.y, Month: k.m, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

func (db *DB) CourseCategoryStats(_ context.Context) ([]storage.CategoryStats, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stats := make(map[string]*storage.CategoryStats)
	sums := make(map[string]float64)
	for _, c := range db.courses {
		s, ok := stats[c.Category]
		if !ok {
			s = &storage.CategoryStats{Category: c.Category}
			stats[c.Category] = s
		}
		s.Count++
		s.TotalEnrollments += int64(c.TotalEnrollments)
		sums[c.Category] += c.Price
	}

	out := make([]storage.CategoryStats, 0, len(stats))
	for cat, s := range stats {
		s.AvgPrice = sums[cat] / float64(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}
