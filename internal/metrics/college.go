package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type CollegeMetrics struct {
	studentsCreated     metric.Int64Counter
	coursesCreated      metric.Int64Counter
	enrollmentsCreated  metric.Int64Counter
	enrollmentsRejected metric.Int64Counter
	loginAttempts       metric.Int64Counter
	studentSearches     metric.Int64Counter
}

func NewCollegeMetrics(meter metric.Meter) (*CollegeMetrics, error) {
	cm := &CollegeMetrics{}

	var err error

	cm.studentsCreated, err = meter.Int64Counter(
		"college_service.students.created",
		metric.WithDescription("Total number of students created"),
		metric.WithUnit("{student}"),
	)
	if err != nil {
		return nil, err
	}

	cm.coursesCreated, err = meter.Int64Counter(
		"college_service.courses.created",
		metric.WithDescription("Total number of courses created"),
		metric.WithUnit("{course}"),
	)
	if err != nil {
		return nil, err
	}

	cm.enrollmentsCreated, err = meter.Int64Counter(
		"college_service.enrollments.created",
		metric.WithDescription("Total number of enrollments created"),
		metric.WithUnit("{enrollment}"),
	)
	if err != nil {
		return nil, err
	}

	cm.enrollmentsRejected, err = meter.Int64Counter(
		"college_service.enrollments.rejected",
		metric.WithDescription("Enrollment attempts rejected by a business rule"),
		metric.WithUnit("{enrollment}"),
	)
	if err != nil {
		return nil, err
	}

	cm.loginAttempts, err = meter.Int64Counter(
		"college_service.auth.login_attempts",
		metric.WithDescription("Login attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	cm.studentSearches, err = meter.Int64Counter(
		"college_service.students.searches",
		metric.WithDescription("Total number of student searches"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, err
	}

	return cm, nil
}

func (cm *CollegeMetrics) RecordStudentCreated(ctx context.Context) {
	if cm != nil && cm.studentsCreated != nil {
		cm.studentsCreated.Add(ctx, 1)
	}
}

func (cm *CollegeMetrics) RecordCourseCreated(ctx context.Context) {
	if cm != nil && cm.coursesCreated != nil {
		cm.coursesCreated.Add(ctx, 1)
	}
}

func (cm *CollegeMetrics) RecordEnrollmentCreated(ctx context.Context) {
	if cm != nil && cm.enrollmentsCreated != nil {
		cm.enrollmentsCreated.Add(ctx, 1)
	}
}

// RecordEnrollmentRejected counts by reason: student_not_found, course_not_found, duplicate.
func (cm *CollegeMetrics) RecordEnrollmentRejected(ctx context.Context, reason string) {
	if cm != nil && cm.enrollmentsRejected != nil {
		cm.enrollmentsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (cm *CollegeMetrics) RecordLogin(ctx context.Context, success bool) {
	if cm == nil || cm.loginAttempts == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	cm.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (cm *CollegeMetrics) RecordStudentSearch(ctx context.Context) {
	if cm != nil && cm.studentSearches != nil {
		cm.studentSearches.Add(ctx, 1)
	}
}
