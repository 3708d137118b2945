package cvs

import "time"

// CV is a user's résumé; every section row hangs off it through cv_id.
type CV struct {
	ID         int64     `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	Title      string    `db:"title" json:"title"`
	TargetRole *string   `db:"target_role" json:"targetRole"`
	Summary    *string   `db:"summary" json:"summary"`
	Template   *string   `db:"template" json:"template"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

type CVInput struct {
	Title      string  `db:"title" json:"title" binding:"required,max=200"`
	TargetRole *string `db:"target_role" json:"targetRole" binding:"omitempty,max=200"`
	Summary    *string `db:"summary" json:"summary"`
	Template   *string `db:"template" json:"template" binding:"omitempty,max=50"`
}

// CVPatch and the other *Patch types are partial updates: a nil field leaves the column
// untouched. Optional text is cleared by sending "", which is stored as an empty string and
// rendered as absent; a patch never resets a column to NULL.
type CVPatch struct {
	Title      *string `db:"title" json:"title" binding:"omitempty,min=1,max=200"`
	TargetRole *string `db:"target_role" json:"targetRole" binding:"omitempty,max=200"`
	Summary    *string `db:"summary" json:"summary"`
	Template   *string `db:"template" json:"template" binding:"omitempty,max=50"`
}

type Contact struct {
	ID        int64     `db:"id" json:"id"`
	CVID      int64     `db:"cv_id" json:"cvId"`
	FullName  string    `db:"full_name" json:"fullName"`
	Headline  *string   `db:"headline" json:"headline"`
	Email     *string   `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone"`
	Website   *string   `db:"website" json:"website"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type ContactInput struct {
	FullName string  `db:"full_name" json:"fullName" binding:"required"`
	Headline *string `db:"headline" json:"headline"`
	Email    *string `db:"email" json:"email" binding:"omitempty,email"`
	Phone    *string `db:"phone" json:"phone"`
	Website  *string `db:"website" json:"website" binding:"omitempty,url"`
}

type ContactPatch struct {
	FullName *string `db:"full_name" json:"fullName" binding:"omitempty,min=1"`
	Headline *string `db:"headline" json:"headline"`
	Email    *string `db:"email" json:"email" binding:"omitempty,email"`
	Phone    *string `db:"phone" json:"phone"`
	Website  *string `db:"website" json:"website" binding:"omitempty,url"`
}

type Social struct {
	ID        int64     `db:"id" json:"id"`
	CVID      int64     `db:"cv_id" json:"cvId"`
	Social    string    `db:"social" json:"social"`
	URL       string    `db:"url" json:"url"`
	Username  *string   `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type SocialInput struct {
	Social   string  `db:"social" json:"social" binding:"required"`
	URL      string  `db:"url" json:"url" binding:"required,url"`
	Username *string `db:"username" json:"username"`
}

type SocialPatch struct {
	Social   *string `db:"social" json:"social" binding:"omitempty,min=1"`
	URL      *string `db:"url" json:"url" binding:"omitempty,url"`
	Username *string `db:"username" json:"username"`
}

type Location struct {
	ID         int64     `db:"id" json:"id"`
	CVID       int64     `db:"cv_id" json:"cvId"`
	City       *string   `db:"city" json:"city"`
	Country    *string   `db:"country" json:"country"`
	Address    *string   `db:"address" json:"address"`
	PostalCode *string   `db:"postal_code" json:"postalCode"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

type LocationInput struct {
	City       *string `db:"city" json:"city"`
	Country    *string `db:"country" json:"country"`
	Address    *string `db:"address" json:"address"`
	PostalCode *string `db:"postal_code" json:"postalCode"`
}

// LocationPatch has the same shape as the input: every field is optional.
type LocationPatch LocationInput

type Education struct {
	ID          int64     `db:"id" json:"id"`
	CVID        int64     `db:"cv_id" json:"cvId"`
	Institution string    `db:"institution" json:"institution"`
	Degree      *string   `db:"degree" json:"degree"`
	Field       *string   `db:"field" json:"field"`
	StartDate   *string   `db:"start_date" json:"startDate"`
	EndDate     *string   `db:"end_date" json:"endDate"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type EducationInput struct {
	Institution string  `db:"institution" json:"institution" binding:"required"`
	Degree      *string `db:"degree" json:"degree"`
	Field       *string `db:"field" json:"field"`
	StartDate   *string `db:"start_date" json:"startDate"`
	EndDate     *string `db:"end_date" json:"endDate"`
	Description *string `db:"description" json:"description"`
}

type EducationPatch struct {
	Institution *string `db:"institution" json:"institution" binding:"omitempty,min=1"`
	Degree      *string `db:"degree" json:"degree"`
	Field       *string `db:"field" json:"field"`
	StartDate   *string `db:"start_date" json:"startDate"`
	EndDate     *string `db:"end_date" json:"endDate"`
	Description *string `db:"description" json:"description"`
}

type Work struct {
	ID          int64     `db:"id" json:"id"`
	CVID        int64     `db:"cv_id" json:"cvId"`
	Company     string    `db:"company" json:"company"`
	Position    string    `db:"position" json:"position"`
	Location    *string   `db:"location" json:"location"`
	StartDate   *string   `db:"start_date" json:"startDate"`
	EndDate     *string   `db:"end_date" json:"endDate"`
	IsCurrent   bool      `db:"is_current" json:"isCurrent"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type WorkInput struct {
	Company     string  `db:"company" json:"company" binding:"required"`
	Position    string  `db:"position" json:"position" binding:"required"`
	Location    *string `db:"location" json:"location"`
	StartDate   *string `db:"start_date" json:"startDate"`
	EndDate     *string `db:"end_date" json:"endDate"`
	IsCurrent   bool    `db:"is_current" json:"isCurrent"`
	Description *string `db:"description" json:"description"`
}

type WorkPatch struct {
	Company     *string `db:"company" json:"company" binding:"omitempty,min=1"`
	Position    *string `db:"position" json:"position" binding:"omitempty,min=1"`
	Location    *string `db:"location" json:"location"`
	StartDate   *string `db:"start_date" json:"startDate"`
	EndDate     *string `db:"end_date" json:"endDate"`
	IsCurrent   *bool   `db:"is_current" json:"isCurrent"`
	Description *string `db:"description" json:"description"`
}

type Project struct {
	ID          int64     `db:"id" json:"id"`
	CVID        int64     `db:"cv_id" json:"cvId"`
	Name        string    `db:"name" json:"name"`
	Role        *string   `db:"role" json:"role"`
	URL         *string   `db:"url" json:"url"`
	StartDate   *string   `db:"start_date" json:"startDate"`
	EndDate     *string   `db:"end_date" json:"endDate"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type ProjectInput struct {
	Name        string  `db:"name" json:"name" binding:"required"`
	Role        *string `db:"role" json:"role"`
	URL         *string `db:"url" json:"url" binding:"omitempty,url"`
	StartDate   *string `db:"start_date" json:"startDate"`
	EndDate     *string `db:"end_date" json:"endDate"`
	Description *string `db:"description" json:"description"`
}

type ProjectPatch struct {
	Name        *string `db:"name" json:"name" binding:"omitempty,min=1"`
	Role        *string `db:"role" json:"role"`
	URL         *string `db:"url" json:"url" binding:"omitempty,url"`
	StartDate   *string `db:"start_date" json:"startDate"`
	EndDate     *string `db:"end_date" json:"endDate"`
	Description *string `db:"description" json:"description"`
}

type Skill struct {
	ID        int64     `db:"id" json:"id"`
	CVID      int64     `db:"cv_id" json:"cvId"`
	Name      string    `db:"name" json:"name"`
	Level     *string   `db:"level" json:"level"`
	Category  *string   `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type SkillInput struct {
	Name     string  `db:"name" json:"name" binding:"required"`
	Level    *string `db:"level" json:"level"`
	Category *string `db:"category" json:"category"`
}

type SkillPatch struct {
	Name     *string `db:"name" json:"name" binding:"omitempty,min=1"`
	Level    *string `db:"level" json:"level"`
	Category *string `db:"category" json:"category"`
}

type Language struct {
	ID          int64     `db:"id" json:"id"`
	CVID        int64     `db:"cv_id" json:"cvId"`
	Name        string    `db:"name" json:"name"`
	Proficiency *string   `db:"proficiency" json:"proficiency"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type LanguageInput struct {
	Name        string  `db:"name" json:"name" binding:"required"`
	Proficiency *string `db:"proficiency" json:"proficiency"`
}

type LanguagePatch struct {
	Name        *string `db:"name" json:"name" binding:"omitempty,min=1"`
	Proficiency *string `db:"proficiency" json:"proficiency"`
}

type Course struct {
	ID          int64     `db:"id" json:"id"`
	CVID        int64     `db:"cv_id" json:"cvId"`
	Name        string    `db:"name" json:"name"`
	Institution *string   `db:"institution" json:"institution"`
	CompletedAt *string   `db:"completed_at" json:"completedAt"`
	URL         *string   `db:"url" json:"url"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type CourseInput struct {
	Name        string  `db:"name" json:"name" binding:"required"`
	Institution *string `db:"institution" json:"institution"`
	CompletedAt *string `db:"completed_at" json:"completedAt"`
	URL         *string `db:"url" json:"url" binding:"omitempty,url"`
}

type CoursePatch struct {
	Name        *string `db:"name" json:"name" binding:"omitempty,min=1"`
	Institution *string `db:"institution" json:"institution"`
	CompletedAt *string `db:"completed_at" json:"completedAt"`
	URL         *string `db:"url" json:"url" binding:"omitempty,url"`
}

type Organization struct {
	ID          int64     `db:"id" json:"id"`
	CVID        int64     `db:"cv_id" json:"cvId"`
	Name        string    `db:"name" json:"name"`
	Role        *string   `db:"role" json:"role"`
	StartDate   *string   `db:"start_date" json:"startDate"`
	EndDate     *string   `db:"end_date" json:"endDate"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type OrganizationInput struct {
	Name        string  `db:"name" json:"name" binding:"required"`
	Role        *string `db:"role" json:"role"`
	StartDate   *string `db:"start_date" json:"startDate"`
	EndDate     *string `db:"end_date" json:"endDate"`
	Description *string `db:"description" json:"description"`
}

type OrganizationPatch struct {
	Name        *string `db:"name" json:"name" binding:"omitempty,min=1"`
	Role        *string `db:"role" json:"role"`
	StartDate   *string `db:"start_date" json:"startDate"`
	EndDate     *string `db:"end_date" json:"endDate"`
	Description *string `db:"description" json:"description"`
}

type CoverLetter struct {
	ID        int64     `db:"id" json:"id"`
	CVID      int64     `db:"cv_id" json:"cvId"`
	Title     string    `db:"title" json:"title"`
	Company   *string   `db:"company" json:"company"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type CoverLetterInput struct {
	Title   string  `db:"title" json:"title" binding:"required"`
	Company *string `db:"company" json:"company"`
	Body    string  `db:"body" json:"body" binding:"required"`
}

type CoverLetterPatch struct {
	Title   *string `db:"title" json:"title" binding:"omitempty,min=1"`
	Company *string `db:"company" json:"company"`
	Body    *string `db:"body" json:"body" binding:"omitempty,min=1"`
}

// Job application statuses.
const (
	StatusWishlist  = "wishlist"
	StatusApplied   = "applied"
	StatusInterview = "interview"
	StatusOffer     = "offer"
	StatusRejected  = "rejected"
)

type JobApplication struct {
	ID        int64     `db:"id" json:"id"`
	CVID      int64     `db:"cv_id" json:"cvId"`
	Company   string    `db:"company" json:"company"`
	Position  string    `db:"position" json:"position"`
	Status    string    `db:"status" json:"status"`
	AppliedAt *string   `db:"applied_at" json:"appliedAt"`
	URL       *string   `db:"url" json:"url"`
	Notes     *string   `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type JobApplicationInput struct {
	Company   string  `db:"company" json:"company" binding:"required"`
	Position  string  `db:"position" json:"position" binding:"required"`
	Status    string  `db:"status" json:"status" binding:"required,oneof=wishlist applied interview offer rejected"`
	AppliedAt *string `db:"applied_at" json:"appliedAt"`
	URL       *string `db:"url" json:"url" binding:"omitempty,url"`
	Notes     *string `db:"notes" json:"notes"`
}

type JobApplicationPatch struct {
	Company   *string `db:"company" json:"company" binding:"omitempty,min=1"`
	Position  *string `db:"position" json:"position" binding:"omitempty,min=1"`
	Status    *string `db:"status" json:"status" binding:"omitempty,oneof=wishlist applied interview offer rejected"`
	AppliedAt *string `db:"applied_at" json:"appliedAt"`
	URL       *string `db:"url" json:"url" binding:"omitempty,url"`
	Notes     *string `db:"notes" json:"notes"`
}
