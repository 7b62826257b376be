package models

// ListingStatus is the server-owned lifecycle state of a listing
type ListingStatus string

const (
	StatusOpen      ListingStatus = "open"
	StatusTaken     ListingStatus = "taken"
	StatusCompleted ListingStatus = "completed"
	StatusCancelled ListingStatus = "cancelled"
)

// Statuses lists every known status in lifecycle order
var Statuses = []ListingStatus{StatusOpen, StatusTaken, StatusCompleted, StatusCancelled}

// Valid reports whether s is one of the known statuses
func (s ListingStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusTaken, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Listing represents a task posted to the marketplace
type Listing struct {
	ID          int64         `json:"listid"`
	Name        string        `json:"listing_name"`
	Description string        `json:"description"`
	Price       float64       `json:"price"`
	Duration    int           `json:"duration"` // minutes
	Capacity    int           `json:"capacity"`
	Address     string        `json:"address"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	Deadline    Timestamp     `json:"deadline"`
	PostingTime Timestamp     `json:"posting_time"`
	Status      ListingStatus `json:"status"`
	MatchScore  *float64      `json:"match_score,omitempty"` // server-computed for the current viewer
	Distance    *float64      `json:"distance,omitempty"`
}

// TaskCategory is an entry of the category vocabulary
type TaskCategory struct {
	ID   int64  `json:"category_id"`
	Name string `json:"category_name"`
}

// User is the account record returned by signup/login and persisted locally
type User struct {
	UID            int64    `json:"uid"`
	Name           string   `json:"name"`
	Email          string   `json:"email,omitempty"`
	PhoneNumber    string   `json:"phone_number,omitempty"`
	ProfilePicture string   `json:"profile_picture,omitempty"`
	OverallRating  *float64 `json:"overall_rating,omitempty"`
	TotalEarnings  *float64 `json:"total_earnings,omitempty"`
}

// Review is a poster's rating of a worker on a completed listing
type Review struct {
	ListingID    int64     `json:"listid"`
	ReviewerUID  int64     `json:"reviewer_uid"`
	RevieweeUID  int64     `json:"reviewee_uid"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	Timestamp    Timestamp `json:"timestamp"`
	ReviewerName string    `json:"reviewer_name,omitempty"` // profile responses only
	ListingName  string    `json:"listing_name,omitempty"`  // profile responses only
}

// AssignedUser is one entry of a listing's assignee roster
type AssignedUser struct {
	UID            int64  `json:"uid"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Profile is a user with their reviews and listings
type Profile struct {
	User
	Reviews          []Review  `json:"reviews"`
	CreatedListings  []Listing `json:"created_listings"`
	AssignedListings []Listing `json:"assigned_listings"`
}

// Coordinates is a latitude/longitude pair in degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ListingQuery carries every parameter of the filter-and-sort request
type ListingQuery struct {
	Categories []string // category names, sent as repeated params
	Status     string
	Sort       string
	Search     string
	UID        int64
	Location   Coordinates
}

// Draft is the body used to create a listing
type Draft struct {
	Name        string    `json:"listing_name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Capacity    int       `json:"capacity"`
	Duration    int       `json:"duration"`
	Deadline    Timestamp `json:"deadline"`
	Address     string    `json:"address"`
	Longitude   float64   `json:"longitude"`
	Latitude    float64   `json:"latitude"`
	PosterUID   int64     `json:"poster_uid"`
	CategoryIDs []int64   `json:"category_ids"`
	Located     bool      `json:"-"` // address was resolved to coordinates
}

// NewReview is the body used to submit a review
type NewReview struct {
	ListingID   int64  `json:"listid"`
	ReviewerUID int64  `json:"reviewer_uid"`
	RevieweeUID int64  `json:"reviewee_uid"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
}

// Signup is the body used to register
type Signup struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// Credentials is the body used to log in with either email or phone
type Credentials struct {
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Password    string `json:"password"`
}
