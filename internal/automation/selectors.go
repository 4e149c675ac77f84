package automation

// Locator strategy lists for the post surface. Each list is tried in order
// so minor structural drift in the target's markup does not require touching
// the retry logic. Kept as package variables so they can be swapped without
// code changes elsewhere.

// PostArticleSelector matches the loaded target post.
const PostArticleSelector = `article[data-testid="tweet"]`

// PostTextSelector matches the target post's text content.
const PostTextSelector = `article[data-testid="tweet"] div[data-testid="tweetText"]`

var likeSelectors = []string{
	`button[data-testid="like"]`,
	`div[data-testid="like"]`,
	`[aria-label*="Beğen"]`,
	`[aria-label*="Like"]`,
}

var retweetSelectors = []string{
	`button[data-testid="retweet"]`,
	`div[data-testid="retweet"]`,
	`[aria-label*="Repost"]`,
	`[aria-label*="Retweet"]`,
}

var retweetConfirmSelectors = []string{
	`button[data-testid="retweetConfirm"]`,
	`div[data-testid="retweetConfirm"]`,
	`[data-testid="retweetConfirm"]`,
}

var replySelectors = []string{
	`button[data-testid="reply"]`,
	`div[data-testid="reply"]`,
	`[aria-label*="Yanıtla"]`,
	`[aria-label*="Reply"]`,
}

var replyTextboxSelectors = []string{
	`div[data-testid="tweetTextarea_0"]`,
	`div[contenteditable="true"][role="textbox"]`,
	`.public-DraftEditor-content`,
}

var replySendSelectors = []string{
	`button[data-testid="tweetButton"]`,
	`button[data-testid="tweetButtonInline"]`,
	`div[data-testid="tweetButton"]`,
	`[aria-label*="Yanıtla"][role="button"]`,
	`[aria-label*="Reply"][role="button"]`,
}
