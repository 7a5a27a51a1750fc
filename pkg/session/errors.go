package session

import (
	"context"
	"errors"

	"github.com/jwebster45206/wuxia-session/pkg/combat"
	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/textfilter"
)

var (
	ErrRequestInFlight = errors.New("another request is still in progress")
	ErrNotStarted      = errors.New("session has not been started")
	ErrEmptyInput      = errors.New("input cannot be empty")
	ErrInCombat        = errors.New("not available during combat")
	ErrNotInCombat     = errors.New("not in combat")
	ErrNotInDialogue   = errors.New("not talking to anyone")
	ErrUnknownNPC      = errors.New("no such character here")
	ErrCharacterDead   = errors.New("the character has died")
	ErrRejected        = errors.New("request rejected")
)

var (
	modelSignals = textfilter.NewKeywordSet(
		"model", "llm", "gpt", "模型",
	)
	failureSignals = textfilter.NewKeywordSet(
		"unavailable", "overloaded", "timeout", "timed out", "rate limit",
		"無法", "失敗", "逾時", "超時", "繁忙",
	)
)

// IsModelFailure reports whether err looks like the selected model failed,
// in which case the session falls back to the default model. When err
// carries a source failure message only that message is matched, so local
// wrapping text never counts.
func IsModelFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	var f source.Failure
	if errors.As(err, &f) {
		msg = f.FailureMessage()
	}
	if !modelSignals.Contains(msg) {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || failureSignals.Contains(msg)
}

// IsLocal reports whether err was raised before anything reached the source.
// Local errors are returned to the caller and never written to the log.
func IsLocal(err error) bool {
	switch {
	case errors.Is(err, ErrRequestInFlight),
		errors.Is(err, ErrNotStarted),
		errors.Is(err, ErrEmptyInput),
		errors.Is(err, ErrInCombat),
		errors.Is(err, ErrNotInCombat),
		errors.Is(err, ErrNotInDialogue),
		errors.Is(err, ErrUnknownNPC),
		errors.Is(err, ErrCharacterDead):
		return true
	}
	return isComposerRejection(err)
}

func isComposerRejection(err error) bool {
	for _, target := range []error{
		combat.ErrNoStrategy, combat.ErrNoValidTargets, combat.ErrNoTarget,
		combat.ErrInvalidTarget, combat.ErrTargetFixed, combat.ErrUnknownTechnique,
		combat.ErrTechniqueStrategy, combat.ErrWeaponMismatch, combat.ErrNoTechnique,
		combat.ErrIntensityRange, combat.ErrInsufficientResource, combat.ErrAlreadySubmitted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// notice is the system message shown for a failed request.
func notice(err error) string {
	switch {
	case errors.Is(err, source.ErrUnauthorized):
		return "登入已過期，請重新登入。"
	case errors.Is(err, source.ErrUnsupported):
		return "離線模式不支援此操作。"
	case errors.Is(err, source.ErrProtocolShape):
		return "伺服器回應格式有誤，請稍後再試。"
	case IsModelFailure(err):
		return "所選模型暫時無法使用，已切換回預設模型。"
	case errors.Is(err, context.DeadlineExceeded):
		return "請求逾時，請稍後再試。"
	case errors.Is(err, context.Canceled):
		return "請求已取消。"
	default:
		return "發生錯誤：" + err.Error()
	}
}
