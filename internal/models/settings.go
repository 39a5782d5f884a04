package models

// TikTokPrivacy is the TikTok privacy level for a published video.
type TikTokPrivacy string

const (
	TikTokPublic        TikTokPrivacy = "PUBLIC_TO_EVERYONE"
	TikTokMutualFollow  TikTokPrivacy = "MUTUAL_FOLLOW_FRIENDS"
	TikTokFollowerOfMe  TikTokPrivacy = "FOLLOWER_OF_CREATOR"
	TikTokSelfOnly      TikTokPrivacy = "SELF_ONLY"
)

// TikTokSettings are the per-post TikTok publish flags.
type TikTokSettings struct {
	PrivacyLevel          TikTokPrivacy `json:"privacy_level"`
	DisableDuet           bool          `json:"disable_duet"`
	DisableStitch         bool          `json:"disable_stitch"`
	DisableComment        bool          `json:"disable_comment"`
	BrandContentToggle    bool          `json:"brand_content_toggle"`
	BrandOrganicToggle    bool          `json:"brand_organic_toggle"`
	AutoAddMusic          bool          `json:"auto_add_music"`
	IsAigc                bool          `json:"is_aigc"`
	VideoCoverTimestampMs int           `json:"video_cover_timestamp_ms,omitempty"`
}

// YouTubeSettings are the per-post YouTube publish flags.
type YouTubeSettings struct {
	Privacy     string `json:"privacy"` // public, private, unlisted
	MadeForKids bool   `json:"made_for_kids"`
	Title       string `json:"title,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
}

// GoogleBusinessPostType selects the Google Business post variant.
type GoogleBusinessPostType string

const (
	GoogleBusinessStandard GoogleBusinessPostType = "STANDARD"
	GoogleBusinessEvent    GoogleBusinessPostType = "EVENT"
	GoogleBusinessOffer    GoogleBusinessPostType = "OFFER"
)

// CalendarDate is a provider-style date with 1-indexed month.
type CalendarDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// GoogleBusinessCTA is an optional call-to-action on a standard post.
type GoogleBusinessCTA struct {
	ActionType string `json:"action_type"` // LEARN_MORE, BOOK, ORDER, SHOP, SIGN_UP, CALL
	URL        string `json:"url,omitempty"`
}

// GoogleBusinessEventDetails describes an EVENT post.
type GoogleBusinessEventDetails struct {
	Title     string        `json:"title"`
	StartDate CalendarDate  `json:"start_date"`
	EndDate   *CalendarDate `json:"end_date,omitempty"`
}

// GoogleBusinessOfferDetails describes an OFFER post.
type GoogleBusinessOfferDetails struct {
	Title           string        `json:"title"`
	CouponCode      string        `json:"coupon_code,omitempty"`
	RedeemOnlineURL string        `json:"redeem_online_url,omitempty"`
	TermsConditions string        `json:"terms_conditions,omitempty"`
	StartDate       CalendarDate  `json:"start_date"`
	EndDate         *CalendarDate `json:"end_date,omitempty"`
}

// GoogleBusinessSettings are the per-post Google Business fields.
type GoogleBusinessSettings struct {
	PostType     GoogleBusinessPostType      `json:"post_type"`
	CallToAction *GoogleBusinessCTA          `json:"call_to_action,omitempty"`
	Event        *GoogleBusinessEventDetails `json:"event,omitempty"`
	Offer        *GoogleBusinessOfferDetails `json:"offer,omitempty"`
}

// PostSettings groups the per-platform publish options of a post.
type PostSettings struct {
	LocationTag    string                  `json:"location_tag,omitempty"`
	TaggedAccounts []string                `json:"tagged_accounts,omitempty"`
	ThumbnailURL   string                  `json:"thumbnail_url,omitempty"`
	TikTok         *TikTokSettings         `json:"tiktok,omitempty"`
	YouTube        *YouTubeSettings        `json:"youtube,omitempty"`
	GoogleBusiness *GoogleBusinessSettings `json:"google_business,omitempty"`
}
