package platforms

import (
	"time"

	"feedbird/internal/models"
)

// TikTokOptions flattens TikTok settings into the provider payload shape.
// Absent settings fall back to a public, unrestricted post.
func TikTokOptions(s *models.PostSettings) map[string]any {
	opts := map[string]any{
		"privacy_level": string(models.TikTokPublic),
	}
	if s == nil || s.TikTok == nil {
		return opts
	}
	t := s.TikTok
	if t.PrivacyLevel != "" {
		opts["privacy_level"] = string(t.PrivacyLevel)
	}
	opts["disable_duet"] = t.DisableDuet
	opts["disable_stitch"] = t.DisableStitch
	opts["disable_comment"] = t.DisableComment
	opts["brand_content_toggle"] = t.BrandContentToggle
	opts["brand_organic_toggle"] = t.BrandOrganicToggle
	opts["auto_add_music"] = t.AutoAddMusic
	opts["is_aigc"] = t.IsAigc
	if t.VideoCoverTimestampMs > 0 {
		opts["video_cover_timestamp_ms"] = t.VideoCoverTimestampMs
	}
	return opts
}

// YouTubeOptions flattens YouTube settings into the provider payload shape.
func YouTubeOptions(s *models.PostSettings) map[string]any {
	opts := map[string]any{
		"privacy":       "public",
		"made_for_kids": false,
	}
	if s == nil || s.YouTube == nil {
		return opts
	}
	y := s.YouTube
	if y.Privacy != "" {
		opts["privacy"] = y.Privacy
	}
	opts["made_for_kids"] = y.MadeForKids
	if y.Title != "" {
		opts["title"] = y.Title
	}
	if y.CategoryID != "" {
		opts["category_id"] = y.CategoryID
	}
	return opts
}

// GoogleBusinessOptions flattens Google Business settings into the provider
// payload shape. Call ValidateGoogleBusiness first.
func GoogleBusinessOptions(s *models.PostSettings) map[string]any {
	opts := map[string]any{
		"post_type": string(models.GoogleBusinessStandard),
	}
	if s == nil || s.GoogleBusiness == nil {
		return opts
	}
	g := s.GoogleBusiness
	if g.PostType != "" {
		opts["post_type"] = string(g.PostType)
	}
	if g.CallToAction != nil {
		cta := map[string]any{"action_type": g.CallToAction.ActionType}
		if g.CallToAction.URL != "" {
			cta["url"] = g.CallToAction.URL
		}
		opts["call_to_action"] = cta
	}
	if g.Event != nil {
		opts["event"] = map[string]any{
			"title":      g.Event.Title,
			"start_date": calendarMap(g.Event.StartDate),
			"end_date":   calendarPtrMap(g.Event.EndDate),
		}
	}
	if g.Offer != nil {
		offer := map[string]any{
			"title":      g.Offer.Title,
			"start_date": calendarMap(g.Offer.StartDate),
			"end_date":   calendarPtrMap(g.Offer.EndDate),
		}
		if g.Offer.CouponCode != "" {
			offer["coupon_code"] = g.Offer.CouponCode
		}
		if g.Offer.RedeemOnlineURL != "" {
			offer["redeem_online_url"] = g.Offer.RedeemOnlineURL
		}
		if g.Offer.TermsConditions != "" {
			offer["terms_conditions"] = g.Offer.TermsConditions
		}
		opts["offer"] = offer
	}
	return opts
}

// ValidateGoogleBusiness checks the structural rules of a Google Business
// post: EVENT and OFFER variants need their details, and an event may not
// start in the past.
func ValidateGoogleBusiness(s *models.PostSettings, now time.Time) error {
	if s == nil || s.GoogleBusiness == nil {
		return nil
	}
	g := s.GoogleBusiness
	switch g.PostType {
	case models.GoogleBusinessEvent:
		if g.Event == nil || g.Event.Title == "" {
			return models.NewValidationError("google business event posts need event details")
		}
		if calendarTime(g.Event.StartDate).Before(startOfDay(now)) {
			return models.NewValidationError("google business event date cannot be in the past")
		}
	case models.GoogleBusinessOffer:
		if g.Offer == nil || g.Offer.Title == "" {
			return models.NewValidationError("google business offer posts need offer details")
		}
	case models.GoogleBusinessStandard, "":
		// No extra structure required.
	default:
		return models.NewValidationError("unknown google business post type")
	}
	return nil
}

func calendarMap(d models.CalendarDate) map[string]int {
	return map[string]int{"year": d.Year, "month": d.Month, "day": d.Day}
}

func calendarPtrMap(d *models.CalendarDate) map[string]int {
	if d == nil {
		return nil
	}
	return calendarMap(*d)
}

func calendarTime(d models.CalendarDate) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// optionsFor resolves the provider option payload for a platform.
func optionsFor(p models.Platform, s *models.PostSettings) map[string]any {
	switch p {
	case models.PlatformTikTok:
		return TikTokOptions(s)
	case models.PlatformYouTube:
		return YouTubeOptions(s)
	case models.PlatformGoogleBusiness:
		return GoogleBusinessOptions(s)
	default:
		opts := map[string]any{}
		if s != nil {
			if s.LocationTag != "" {
				opts["location_tag"] = s.LocationTag
			}
			if len(s.TaggedAccounts) > 0 {
				opts["tagged_accounts"] = s.TaggedAccounts
			}
			if s.ThumbnailURL != "" {
				opts["thumbnail_url"] = s.ThumbnailURL
			}
		}
		return opts
	}
}
