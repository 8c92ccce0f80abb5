package jobs

import "github.com/prometheus/client_golang/prometheus"

var (
	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schooladmin_job_runs_total",
			Help: "Total background job runs",
		},
		[]string{"job"},
	)

	jobErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schooladmin_job_errors_total",
			Help: "Total background job errors",
		},
		[]string{"job"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schooladmin_job_duration_seconds",
			Help:    "Background job duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	generatedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schooladmin_generated_attendance_total",
			Help: "Attendance records created by daily generators",
		},
		[]string{"kind"},
	)

	enqueuedReminders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schooladmin_enqueued_reminders_total",
			Help: "Reminder notifications enqueued by deadline scans",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(jobRuns, jobErrors, jobDuration, generatedRecords, enqueuedReminders)
}
