package models

import "time"

type CourseVideo struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type CourseModule struct {
	Title  string        `json:"title"`
	Videos []CourseVideo `json:"videos"`
}

type Course struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	ImageURL    *string        `json:"image_url"`
	Modules     []CourseModule `json:"modules"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   *time.Time     `json:"updated_at"`
}

func (c Course) VideosCount() int {
	total := 0
	for _, m := range c.Modules {
		total += len(m.Videos)
	}
	return total
}

const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
)

// EnrollmentMeta.Watched maps "m<module_idx>" to the list of watched video
// indexes, e.g. {"m0": [0, 1], "m1": [0]}.
type EnrollmentMeta struct {
	Watched map[string][]int `json:"watched,omitempty"`
}

func (m EnrollmentMeta) WatchedCount() int {
	total := 0
	for _, idxs := range m.Watched {
		total += len(idxs)
	}
	return total
}

type Enrollment struct {
	UserID      int64          `json:"-"`
	CourseID    int64          `json:"course_id"`
	EnrolledAt  time.Time      `json:"enrolled_at"`
	Status      string         `json:"status"`
	Meta        EnrollmentMeta `json:"meta"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Title       string         `json:"title,omitempty"`
	ImageURL    *string        `json:"image_url,omitempty"`
}

// CourseProgress is the result of recording one watched video.
type CourseProgress struct {
	WatchedCount int  `json:"watchedCount"`
	TotalVideos  int  `json:"totalVideos"`
	Completed    bool `json:"completed"`
}
