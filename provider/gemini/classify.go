package gemini

import (
	"errors"
	"regexp"
	"strings"

	"github.com/mhpenta/mifoto"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

const (
	typeRetryInfo = "type.googleapis.com/google.rpc.RetryInfo"
	typeHelp      = "type.googleapis.com/google.rpc.Help"
	typeErrorInfo = "type.googleapis.com/google.rpc.ErrorInfo"

	statusResourceExhausted = "RESOURCE_EXHAUSTED"
	statusUnauthenticated   = "UNAUTHENTICATED"
)

var (
	retryDelayJSONPattern = regexp.MustCompile(`"retryDelay"\s*:\s*"([^"]+)"`)
	retryInPattern        = regexp.MustCompile(`(?i)retry in ([0-9]+(?:\.[0-9]+)?m?s)`)
	usageLinkPattern      = regexp.MustCompile(`https://ai\.dev/usage\?tab=rate-limit`)

	invalidKeyReasons = []string{"API_KEY_INVALID", "API_KEY_EXPIRED"}
	invalidKeyPhrases = []string{"Requested entity was not found", "API key not valid", "API_KEY_INVALID", "API key expired"}
	quotaPhrases      = []string{statusResourceExhausted, "429", "quota exceeded", "Quota exceeded"}
)

// ParseResponse interprets a generation response. The checks run in a fixed
// order: prompt block, missing candidate, inline image, safety finish reason,
// text answer, and finally the generic no-image failure.
func ParseResponse(resp *genai.GenerateContentResponse) (*mifoto.EditResult, error) {
	if resp == nil {
		return nil, mifoto.NewNoResponse()
	}

	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" {
		return nil, mifoto.NewBlockedByPolicy(string(pf.BlockReason), pf.BlockReasonMessage)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, mifoto.NewNoResponse()
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = "image/png"
			}
			return &mifoto.EditResult{
				ImageURL:   mifoto.EncodeDataURI(mimeType, part.InlineData.Data),
				TokensUsed: tokensUsed,
				Image: mifoto.GeneratedImage{
					Data:     part.InlineData.Data,
					MIMEType: mimeType,
				},
			}, nil
		}
	}

	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, mifoto.NewSafetyRejected()
	}

	if text := strings.TrimSpace(candidateText(candidate)); text != "" {
		return nil, mifoto.NewTextInsteadOfImage(text)
	}

	return nil, mifoto.NewNoImageProduced()
}

// candidateText joins the non-thought text parts of a candidate.
func candidateText(candidate *genai.Candidate) string {
	if candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// apiFailure is the common shape of a remote error, whichever way it arrived.
type apiFailure struct {
	Code    int
	Status  string
	Message string
	Details []map[string]any
}

// ClassifyError turns a transport or API error into an EditError.
//
// Structured genai.APIError fields are used first, then a JSON error body
// embedded in the error text, then plain substring matching.
func ClassifyError(err error) *mifoto.EditError {
	if err == nil {
		return nil
	}

	var editErr *mifoto.EditError
	if errors.As(err, &editErr) {
		return editErr
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyFailure(apiFailure{
			Code:    apiErr.Code,
			Status:  apiErr.Status,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, err)
	}

	raw := err.Error()
	if f, ok := failureFromJSON(raw); ok {
		return classifyFailure(f, err)
	}

	return classifyText(raw, err)
}

func classifyFailure(f apiFailure, err error) *mifoto.EditError {
	// A non-JSON error body leaves the raw body in Message; it may itself be JSON.
	if len(f.Details) == 0 {
		if inner, ok := failureFromJSON(f.Message); ok {
			if inner.Status != "" {
				f.Status = inner.Status
			}
			if inner.Message != "" {
				f.Message = inner.Message
			}
			f.Details = inner.Details
		}
	}

	if f.Code == 429 || f.Status == statusResourceExhausted {
		retryDelay := retryDelayFromDetails(f.Details)
		if retryDelay == "" {
			retryDelay = retryDelayFromText(f.Message)
		}
		return mifoto.NewQuotaExceeded(retryDelay, quotaLinks(f), err)
	}

	if f.Status == statusUnauthenticated || f.Code == 401 || lo.Contains(invalidKeyReasons, errorInfoReason(f.Details)) {
		return mifoto.NewInvalidCredential(err)
	}

	if containsAny(f.Message, invalidKeyPhrases) {
		return mifoto.NewInvalidCredential(err)
	}

	if f.Code == 0 {
		return classifyText(f.Message, err)
	}

	return mifoto.NewRemote(f.Code, f.Message, err)
}

// classifyText is the last resort: pattern matching on raw error text.
func classifyText(raw string, err error) *mifoto.EditError {
	if containsAny(raw, invalidKeyPhrases) {
		return mifoto.NewInvalidCredential(err)
	}
	if containsAny(raw, quotaPhrases) {
		var links []mifoto.Link
		if usageLinkPattern.MatchString(raw) {
			links = []mifoto.Link{mifoto.LinkQuotaDocs, mifoto.LinkUsage}
		}
		return mifoto.NewQuotaExceeded(retryDelayFromText(raw), links, err)
	}
	return mifoto.NewUnknown(err)
}

// failureFromJSON extracts {"error":{...}} from text that may carry a prefix.
func failureFromJSON(raw string) (apiFailure, bool) {
	start := strings.IndexByte(raw, '{')
	if start == -1 {
		return apiFailure{}, false
	}
	body := raw[start:]
	if !gjson.Valid(body) {
		return apiFailure{}, false
	}

	errObj := gjson.Get(body, "error")
	if !errObj.IsObject() {
		return apiFailure{}, false
	}

	details := lo.FilterMap(errObj.Get("details").Array(), func(d gjson.Result, _ int) (map[string]any, bool) {
		m, ok := d.Value().(map[string]any)
		return m, ok
	})

	return apiFailure{
		Code:    int(errObj.Get("code").Int()),
		Status:  errObj.Get("status").String(),
		Message: errObj.Get("message").String(),
		Details: details,
	}, true
}

func findDetail(details []map[string]any, typ string) (map[string]any, bool) {
	return lo.Find(details, func(d map[string]any) bool {
		t, _ := d["@type"].(string)
		return t == typ
	})
}

func retryDelayFromDetails(details []map[string]any) string {
	info, ok := findDetail(details, typeRetryInfo)
	if !ok {
		return ""
	}
	delay, _ := info["retryDelay"].(string)
	return delay
}

func retryDelayFromText(raw string) string {
	if m := retryDelayJSONPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if m := retryInPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

func errorInfoReason(details []map[string]any) string {
	info, ok := findDetail(details, typeErrorInfo)
	if !ok {
		return ""
	}
	reason, _ := info["reason"].(string)
	return reason
}

// quotaLinks collects documentation links: the first google.rpc.Help link
// and the usage dashboard when the message points at it.
func quotaLinks(f apiFailure) []mifoto.Link {
	var links []mifoto.Link

	if help, ok := findDetail(f.Details, typeHelp); ok {
		if raw, ok := help["links"].([]any); ok && len(raw) > 0 {
			if first, ok := raw[0].(map[string]any); ok {
				url, _ := first["url"].(string)
				if url != "" {
					links = append(links, mifoto.Link{Title: mifoto.LinkQuotaDocs.Title, URL: url})
				}
			}
		}
	}

	if usage := usageLinkPattern.FindString(f.Message); usage != "" {
		links = append(links, mifoto.Link{Title: mifoto.LinkUsage.Title, URL: usage})
	}

	return links
}

func containsAny(s string, phrases []string) bool {
	return lo.SomeBy(phrases, func(p string) bool {
		return strings.Contains(s, p)
	})
}
