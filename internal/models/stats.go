package models

// DefaultSiteStats are served for every key the database has no value for.
var DefaultSiteStats = map[string]string{
	"program_duration":        "3 Months",
	"course_tracks":           "8+",
	"placement_rate":          "100%",
	"industry_mentors":        "50+",
	"min_stipend":             "₹15K",
	"max_stipend":             "₹35K",
	"alumni_network":          "500+",
	"partner_companies":       "200+",
	"average_rating":          "4.9/5",
	"avg_package":             "₹12.5L",
	"highest_package":         "₹45L",
	"success_rate":            "95%",
	"hands_on_projects":       "10+",
	"job_placement_guarantee": "100%",
	"active_alumni_network":   "500+",
	"internship_placement":    "100%",
	"convert_to_full_time":    "85%",
	"avg_job_placement_time":  "2 Weeks",
	"average_starting_salary": "₹8.5L",
	"internship_stipend":      "₹15K-₹35K",
}

// IsSiteStatKey reports whether key is one of the known statistics.
func IsSiteStatKey(key string) bool {
	_, ok := DefaultSiteStats[key]
	return ok
}

// MergeSiteStats overlays stored values on the defaults.
func MergeSiteStats(stored map[string]string) map[string]string {
	out := make(map[string]string, len(DefaultSiteStats))
	for k, v := range DefaultSiteStats {
		out[k] = v
	}
	for k, v := range stored {
		if IsSiteStatKey(k) && v != "" {
			out[k] = v
		}
	}
	return out
}
