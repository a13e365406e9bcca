package intercept

// DefaultBlockPatterns is the deny-list of analytics, telemetry, config
// and prefetch endpoints the app hits constantly while browsing. None of
// them matter for content retrieval; blocking them cuts proxy noise and
// upstream load.
func DefaultBlockPatterns() []string {
	return []string{
		`https?://fe-static\.xhscdn\.com/data/formula-static/hammer/patch/\S*`,
		`https?://cdn\.xiaohongshu\.com/webview/\S*`,
		`https?://infra-webview-s1\.xhscdn\.com/webview/\S*`,
		`https?://apm-fe\.xiaohongshu\.com/api/data/\S*`,
		`https?://apm-native\.xiaohongshu\.com/api/collect/?\S*`,
		`https?://lng\.xiaohongshu\.com/api/collect/?\S*`,
		`https?://edith\.xiaohongshu\.com/api/sns/celestial/connect/config\S*`,
		`https?://edith\.xiaohongshu\.com/api/im/users/filterUser/stranger`,
		`https?://t\d\.xiaohongshu\.com/api/collect/?\S*`,
		`https?://edith\.xiaohongshu\.com/api/sns/v\d/note/metrics_report`,
		`https?://edith\.xiaohongshu\.com/api/sns/v\d/system_service/flag_exp\S*`,
		`https?://edith\.xiaohongshu\.com/api/sns/v\d/system_service/config\S*`,
		`https?://sns-avatar-qc\.xhscdn\.com/avatar\S*`,
		`https?://edith\.xiaohongshu\.com/api/sns/v\d/user/signoff/flow`,
		`https?://rec\.xiaohongshu\.com/api/sns/v\d/followings/reddot`,
		`https?://gslb\.xiaohongshu\.com/api/gslb/v\d/domainNew\S*`,
		`https?://edith-seb\.xiaohongshu\.com/api/sns/v\d/system_service/config\S*`,
		`https?://sns-na-i\d\.xhscdn\.com/?\S*`,
		`https?://sns-avatar-qc\.xhscdn\.com/user_banner\S*`,
		`https?://www\.xiaohongshu\.com/api/sns/v\d/hey\S*`,
		`https?://edith\.xiaohongshu\.com/api/sns/v\d/note/detailfeed/preload\S*`,
		`https?://edith\.xiaohongshu\.com/api/media/v\d/upload/permit\S*`,
		`https?://sns-na-i\d\.xhscdn\.com/notes_pre_post\S*`,
		`https?://infra-app-log-\d*\.cos\.ap-shanghai\.myqcloud\.com/xhslog\S*`,
		`https?://edith\.xiaohongshu\.com/api/sns/v\d/note/video_played`,
		`https?://edith\.xiaohongshu\.com/api/sns/v\d/note/widgets`,
		`https?://ros-upload\.xiaohongshu\.com/bad_frame\S*`,
		`https?://infra-app-log-\d*\.cos\.accelerate\.myqcloud\.com/xhslog\S*`,
		`https?://mall\.xiaohongshu\.com/api/store/guide/components/shop_entrance\S*`,
		`https?://edith\.xiaohongshu\.com/api/sns/v\d/system_service/launch`,
		`https?://spider-tracker\.xiaohongshu\.com/api/spider\S*`,
		`https?://open\.kuaishouzt\.com/rest/log/open/sdk/collect\S*`,
		`https?://ci\.xiaohongshu\.com/icons/user\S*`,
		`https?://picasso-static-bak\.xhscdn\.com/fe-platform\S*`,
		`https?://edith\.xiaohongshu\.com/api/sns/v1/system/service/ui/config\S*`,
		`https?://apm-fe\.xiaohongshu\.com/api/data\S*`,
		`https?://edith\.xiaohongshu\.com/api/sns/user_cache/follow/rotate\S*`,
		`https?://edith\.xiaohongshu\.com/api/sns/v1/im/get_recent_chats\S*`,
		`https?://as\.xiaohongshu\.com/api/v1/profile/android\S*`,
		`https?://edith\.xiaohongshu\.com/api/sns/v\d/message/detect\S*`,
		`https?://fe-platform-i\d\.xhscdn\.com/platform\S*`,
		`https?://fe-video-qc\.xhscdn\.com/fe-platform\S*`,
	}
}
