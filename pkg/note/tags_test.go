package note

import "testing"

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "single tag",
			in:   "看海#日落[话题]#去",
			want: "看海 #日落 去",
		},
		{
			name: "adjacent tags get separating spaces",
			in:   "#日落[话题]##摄影[话题]#",
			want: " #日落  #摄影 ",
		},
		{
			name: "clean input is a no-op",
			in:   "没有话题标记的普通文本 #plainhash too",
			want: "没有话题标记的普通文本 #plainhash too",
		},
		{
			name: "empty string",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTags(tt.in); got != tt.want {
				t.Errorf("NormalizeTags(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTags_Idempotent(t *testing.T) {
	in := "晚霞#日落[话题]#真好看"
	once := NormalizeTags(in)
	twice := NormalizeTags(once)
	if once != twice {
		t.Errorf("transform not idempotent: %q vs %q", once, twice)
	}
}

func TestStripHighlightTags(t *testing.T) {
	in := "推荐#这家店[搜索高亮]#不错"
	want := "推荐这家店不错"
	if got := StripHighlightTags(in); got != want {
		t.Errorf("StripHighlightTags(%q) = %q, want %q", in, got, want)
	}

	// Topic tags are a different marker and must survive.
	topic := "#日落[话题]#"
	if got := StripHighlightTags(topic); got != topic {
		t.Errorf("topic tag must pass through, got %q", got)
	}
}

func TestReplaceEmojiTokens(t *testing.T) {
	in := "太好笑了[笑哭R][笑哭R]"
	want := "太好笑了😂😂"
	if got := ReplaceEmojiTokens(in); got != want {
		t.Errorf("ReplaceEmojiTokens(%q) = %q, want %q", in, got, want)
	}

	// Unknown tokens pass through.
	unknown := "[不存在R]"
	if got := ReplaceEmojiTokens(unknown); got != unknown {
		t.Errorf("unknown token must pass through, got %q", got)
	}
}
