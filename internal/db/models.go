package db

import (
	"encoding/json"
	"time"
)

// User maps cms.users.
type User struct {
	UserID             int64      `gorm:"column:user_id;primaryKey;autoIncrement"`
	UserUUID           string     `gorm:"column:user_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Username           string     `gorm:"column:username;type:text;not null;unique"`
	PasswordHash       string     `gorm:"column:password_hash;type:text;not null"`
	Role               string     `gorm:"column:role;type:text;not null;default:author"`
	MustChangePassword bool       `gorm:"column:must_change_password;type:boolean;not null;default:false"`
	CreatedAt          time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	LastLoginAt        *time.Time `gorm:"column:last_login_at;type:timestamptz"`
}

func (User) TableName() string { return "cms.users" }

// Session maps cms.sessions.
type Session struct {
	SessionID  string    `gorm:"column:session_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID     int64     `gorm:"column:user_id;type:bigint;not null"`
	ExpiresAt  time.Time `gorm:"column:expires_at;type:timestamptz;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;type:timestamptz;not null;default:now()"`
}

func (Session) TableName() string { return "cms.sessions" }

// Category maps cms.categories.
type Category struct {
	CategoryID   int64      `gorm:"column:category_id;primaryKey;autoIncrement"`
	CategoryUUID string     `gorm:"column:category_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Slug         string     `gorm:"column:slug;type:text;not null;unique"`
	Name         string     `gorm:"column:name;type:text;not null"`
	Description  *string    `gorm:"column:description;type:text"`
	SortOrder    int        `gorm:"column:sort_order;type:integer;not null;default:0"`
	Enabled      bool       `gorm:"column:enabled;type:boolean;not null;default:true"`
	DeletedAt    *time.Time `gorm:"column:deleted_at;type:timestamptz"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Category) TableName() string { return "cms.categories" }

// Tag maps cms.tags.
type Tag struct {
	TagID     int64     `gorm:"column:tag_id;primaryKey;autoIncrement"`
	TagUUID   string    `gorm:"column:tag_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Slug      string    `gorm:"column:slug;type:text;not null;unique"`
	Name      string    `gorm:"column:name;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Tag) TableName() string { return "cms.tags" }

// Article maps cms.articles, the editorial content authored in the admin.
type Article struct {
	ArticleID     int64      `gorm:"column:article_id;primaryKey;autoIncrement"`
	ArticleUUID   string     `gorm:"column:article_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Title         string     `gorm:"column:title;type:text;not null"`
	Slug          string     `gorm:"column:slug;type:text;not null;unique"`
	Summary       *string    `gorm:"column:summary;type:text"`
	Content       string     `gorm:"column:content;type:text;not null;default:''"`
	Language      string     `gorm:"column:language;type:text;not null;default:und"`
	Status        string     `gorm:"column:status;type:text;not null;default:draft"`
	CategoryID    *int64     `gorm:"column:category_id;type:bigint"`
	AuthorID      int64      `gorm:"column:author_id;type:bigint;not null"`
	PublishedAt   *time.Time `gorm:"column:published_at;type:timestamptz"`
	Views         int64      `gorm:"column:views;type:bigint;not null;default:0"`
	Likes         int64      `gorm:"column:likes;type:bigint;not null;default:0"`
	Shares        int64      `gorm:"column:shares;type:bigint;not null;default:0"`
	Comments      int64      `gorm:"column:comments;type:bigint;not null;default:0"`
	TrendingScore float64    `gorm:"column:trending_score;type:double precision;not null;default:0"`
	DeletedAt     *time.Time `gorm:"column:deleted_at;type:timestamptz"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Article) TableName() string { return "cms.articles" }

// ArticleTag maps cms.article_tags.
type ArticleTag struct {
	ArticleID int64 `gorm:"column:article_id;type:bigint;primaryKey"`
	TagID     int64 `gorm:"column:tag_id;type:bigint;primaryKey"`
}

func (ArticleTag) TableName() string { return "cms.article_tags" }

// NewsItem maps cms.news_items, content ingested from external feeds.
type NewsItem struct {
	NewsID           int64      `gorm:"column:news_id;primaryKey;autoIncrement"`
	NewsUUID         string     `gorm:"column:news_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Source           string     `gorm:"column:source;type:text;not null"`
	SourceItemID     string     `gorm:"column:source_item_id;type:text;not null"`
	Title            string     `gorm:"column:title;type:text;not null"`
	Content          string     `gorm:"column:content;type:text;not null;default:''"`
	Summary          *string    `gorm:"column:summary;type:text"`
	URL              *string    `gorm:"column:url;type:text"`
	URLHash          []byte     `gorm:"column:url_hash;type:bytea"`
	Language         string     `gorm:"column:language;type:text;not null;default:und"`
	SourceDomain     *string    `gorm:"column:source_domain;type:text"`
	ImageURL         *string    `gorm:"column:image_url;type:text"`
	CategoryID       *int64     `gorm:"column:category_id;type:bigint"`
	PublishedAt      *time.Time `gorm:"column:published_at;type:timestamptz"`
	FetchedAt        time.Time  `gorm:"column:fetched_at;type:timestamptz;not null;default:now()"`
	Processed        bool       `gorm:"column:processed;type:boolean;not null;default:false"`
	DuplicateGroupID *int64     `gorm:"column:duplicate_group_id;type:bigint"`
	Views            int64      `gorm:"column:views;type:bigint;not null;default:0"`
	Likes            int64      `gorm:"column:likes;type:bigint;not null;default:0"`
	Shares           int64      `gorm:"column:shares;type:bigint;not null;default:0"`
	Comments         int64      `gorm:"column:comments;type:bigint;not null;default:0"`
	TrendingScore    float64    `gorm:"column:trending_score;type:double precision;not null;default:0"`
	DeletedAt        *time.Time `gorm:"column:deleted_at;type:timestamptz"`
	CreatedAt        time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (NewsItem) TableName() string { return "cms.news_items" }

// NewsItemTag maps cms.news_item_tags.
type NewsItemTag struct {
	NewsID int64 `gorm:"column:news_id;type:bigint;primaryKey"`
	TagID  int64 `gorm:"column:tag_id;type:bigint;primaryKey"`
}

func (NewsItemTag) TableName() string { return "cms.news_item_tags" }

// IngestArrival maps cms.ingest_arrivals, the raw payload audit trail.
type IngestArrival struct {
	ArrivalID    int64           `gorm:"column:arrival_id;primaryKey;autoIncrement"`
	ArrivalUUID  string          `gorm:"column:arrival_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Source       string          `gorm:"column:source;type:text;not null"`
	SourceItemID string          `gorm:"column:source_item_id;type:text;not null"`
	RawPayload   json.RawMessage `gorm:"column:raw_payload;type:jsonb;not null"`
	PayloadHash  []byte          `gorm:"column:payload_hash;type:bytea;not null"`
	NewsID       *int64          `gorm:"column:news_id;type:bigint"`
	Outcome      string          `gorm:"column:outcome;type:text;not null"`
	FetchedAt    time.Time       `gorm:"column:fetched_at;type:timestamptz;not null;default:now()"`
}

func (IngestArrival) TableName() string { return "cms.ingest_arrivals" }

// DuplicateGroup maps cms.duplicate_groups.
type DuplicateGroup struct {
	GroupID       int64      `gorm:"column:group_id;primaryKey;autoIncrement"`
	GroupUUID     string     `gorm:"column:group_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Status        string     `gorm:"column:status;type:text;not null;default:open"`
	PrimaryNewsID int64      `gorm:"column:primary_news_id;type:bigint;not null"`
	Confidence    float64    `gorm:"column:confidence;type:double precision;not null"`
	DetectedAt    time.Time  `gorm:"column:detected_at;type:timestamptz;not null;default:now()"`
	ResolvedAt    *time.Time `gorm:"column:resolved_at;type:timestamptz"`
	ResolvedBy    *int64     `gorm:"column:resolved_by;type:bigint"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (DuplicateGroup) TableName() string { return "cms.duplicate_groups" }

// DuplicateGroupMember maps cms.duplicate_group_members.
type DuplicateGroupMember struct {
	GroupID      int64           `gorm:"column:group_id;type:bigint;primaryKey"`
	NewsID       int64           `gorm:"column:news_id;type:bigint;primaryKey"`
	Similarity   float64         `gorm:"column:similarity;type:double precision;not null"`
	Confidence   float64         `gorm:"column:confidence;type:double precision;not null"`
	MatchDetails json.RawMessage `gorm:"column:match_details;type:jsonb"`
	AddedAt      time.Time       `gorm:"column:added_at;type:timestamptz;not null;default:now()"`
}

func (DuplicateGroupMember) TableName() string { return "cms.duplicate_group_members" }

// EngagementEvent maps cms.engagement_events.
type EngagementEvent struct {
	EventID    int64     `gorm:"column:event_id;primaryKey;autoIncrement"`
	EventUUID  string    `gorm:"column:event_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	EntityType string    `gorm:"column:entity_type;type:text;not null"`
	EntityID   int64     `gorm:"column:entity_id;type:bigint;not null"`
	Action     string    `gorm:"column:action;type:text;not null"`
	UserID     *int64    `gorm:"column:user_id;type:bigint"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (EngagementEvent) TableName() string { return "cms.engagement_events" }

// PointTransaction maps cms.point_transactions.
type PointTransaction struct {
	TransactionID   int64     `gorm:"column:transaction_id;primaryKey;autoIncrement"`
	TransactionUUID string    `gorm:"column:transaction_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	UserID          int64     `gorm:"column:user_id;type:bigint;not null"`
	Action          string    `gorm:"column:action;type:text;not null"`
	Points          int       `gorm:"column:points;type:integer;not null"`
	EntityType      *string   `gorm:"column:entity_type;type:text"`
	EntityID        *int64    `gorm:"column:entity_id;type:bigint"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (PointTransaction) TableName() string { return "cms.point_transactions" }

// BulkRun maps cms.bulk_runs, one row per bulk operation request.
type BulkRun struct {
	RunID        int64      `gorm:"column:run_id;primaryKey;autoIncrement"`
	RunUUID      string     `gorm:"column:run_uuid;type:uuid;not null;unique"`
	Operation    string     `gorm:"column:operation;type:text;not null"`
	EntityType   string     `gorm:"column:entity_type;type:text;not null"`
	Requested    int        `gorm:"column:requested;type:integer;not null"`
	Succeeded    int        `gorm:"column:succeeded;type:integer;not null;default:0"`
	Failed       int        `gorm:"column:failed;type:integer;not null;default:0"`
	ActorUserID  int64      `gorm:"column:actor_user_id;type:bigint;not null"`
	Status       string     `gorm:"column:status;type:text;not null;default:running"`
	ErrorMessage *string    `gorm:"column:error_message;type:text"`
	StartedAt    time.Time  `gorm:"column:started_at;type:timestamptz;not null;default:now()"`
	FinishedAt   *time.Time `gorm:"column:finished_at;type:timestamptz"`
}

func (BulkRun) TableName() string { return "cms.bulk_runs" }

func autoMigrateModels() []any {
	return []any{
		&User{},
		&Session{},
		&Category{},
		&Tag{},
		&Article{},
		&ArticleTag{},
		&NewsItem{},
		&NewsItemTag{},
		&IngestArrival{},
		&DuplicateGroup{},
		&DuplicateGroupMember{},
		&EngagementEvent{},
		&PointTransaction{},
		&BulkRun{},
	}
}
