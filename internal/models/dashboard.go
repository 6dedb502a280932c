package models

import "time"

// OccupancySnapshot aggregates room usage across the residence.
type OccupancySnapshot struct {
	TotalRooms       int `json:"total_rooms"`
	OccupiedRooms    int `json:"occupied_rooms"`
	MaintenanceRooms int `json:"maintenance_rooms"`
}

// DashboardSummary combines occupancy and attendance figures for the
// operational overview endpoint.
type DashboardSummary struct {
	Occupancy            OccupancySnapshot `json:"occupancy"`
	UnallocatedResidents int               `json:"unallocated_residents"`
	TodayAttendance      AttendanceSummary `json:"today_attendance"`
	PendingLeaves        int               `json:"pending_leaves"`
	GeneratedAt          time.Time         `json:"generated_at"`
}

// SystemMetrics is a lightweight JSON view of the Prometheus counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"avg_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
