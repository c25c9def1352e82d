package editline

// Variables are string-keyed settings consulted at well-known points by the
// reader. Unset variables fall back to the defaults below.
const (
	VarAmbiguousBinding       = "ambiguous-binding"
	VarBellStyle              = "bell-style"
	VarCommentBegin           = "comment-begin"
	VarErrors                 = "errors"
	VarFeaturesMaxBufferSize  = "features-max-buffer-size"
	VarHistoryFile            = "history-file"
	VarHistoryFileSize        = "history-file-size"
	VarHistoryIgnore          = "history-ignore"
	VarHistorySize            = "history-size"
	VarLineOffset             = "line-offset"
	VarListMax                = "list-max"
	VarMaxRepeatCount         = "max-repeat-count"
	VarMenuListMax            = "menu-list-max"
	VarRemoveSuffixChars      = "REMOVE_SUFFIX_CHARS"
	VarSearchTerminators      = "search-terminators"
	VarSecondaryPromptPattern = "secondary-prompt-pattern"
	VarSuggestionsMinBufSize  = "suggestions-min-buffer-size"
	VarTabWidth               = "tab-width"
	VarWordChars              = "WORDCHARS"
)

// Bell styles for the bell-style variable.
const (
	BellNone    = "none"
	BellAudible = "audible"
	BellVisible = "visible"
)

// Flag is a boolean reader option.
type Flag string

// Reader option flags.
const (
	FlagAutoGroup          Flag = "AUTO_GROUP"
	FlagAutoList           Flag = "AUTO_LIST"
	FlagAutoMenu           Flag = "AUTO_MENU"
	FlagAutoParamSlash     Flag = "AUTO_PARAM_SLASH"
	FlagAutoRemoveSlash    Flag = "AUTO_REMOVE_SLASH"
	FlagBracketedPaste     Flag = "BRACKETED_PASTE"
	FlagCaseInsensitive    Flag = "CASE_INSENSITIVE"
	FlagCompleteInWord     Flag = "COMPLETE_IN_WORD"
	FlagCompleteMatcherTypo Flag = "COMPLETE_MATCHER_TYPO"
	FlagDelayLineWrap      Flag = "DELAY_LINE_WRAP"
	FlagDisableUndo        Flag = "DISABLE_UNDO"
	FlagEmptyWordOptions   Flag = "EMPTY_WORD_OPTIONS"
	FlagEraseLineOnFinish  Flag = "ERASE_LINE_ON_FINISH"
	FlagGroup              Flag = "GROUP"
	FlagHistoryBeep        Flag = "HISTORY_BEEP"
	FlagHistoryIgnoreDups  Flag = "HISTORY_IGNORE_DUPS"
	FlagHistoryIgnoreSpace Flag = "HISTORY_IGNORE_SPACE"
	FlagHistoryIncremental Flag = "HISTORY_INCREMENTAL"
	FlagHistoryReduceBlanks Flag = "HISTORY_REDUCE_BLANKS"
	FlagHistoryTimestamped Flag = "HISTORY_TIMESTAMPED"
	FlagInsertTab          Flag = "INSERT_TAB"
	FlagListPacked         Flag = "LIST_PACKED"
	FlagListRowsFirst      Flag = "LIST_ROWS_FIRST"
	FlagMouse              Flag = "MOUSE"
)

// defaultFlags holds the flags that are on by default. Flags not listed
// default to off.
var defaultFlags = map[Flag]bool{
	FlagAutoGroup:           true,
	FlagAutoList:            true,
	FlagAutoMenu:            true,
	FlagAutoParamSlash:      true,
	FlagAutoRemoveSlash:     true,
	FlagBracketedPaste:      true,
	FlagCompleteMatcherTypo: true,
	FlagEmptyWordOptions:    true,
	FlagGroup:               true,
	FlagHistoryBeep:         true,
	FlagHistoryIgnoreDups:   true,
	FlagHistoryIgnoreSpace:  true,
	FlagHistoryIncremental:  true,
	FlagHistoryReduceBlanks: true,
	FlagHistoryTimestamped:  true,
}

var defaultVars = map[string]interface{}{
	VarAmbiguousBinding:       1000, // milliseconds
	VarBellStyle:              BellAudible,
	VarCommentBegin:           "#",
	VarErrors:                 2,
	VarFeaturesMaxBufferSize:  1000,
	VarHistoryFileSize:        10000,
	VarHistorySize:            500,
	VarLineOffset:             0,
	VarListMax:                100,
	VarMaxRepeatCount:         9999,
	VarMenuListMax:            0,
	VarRemoveSuffixChars:      " \t\n;&|",
	VarSearchTerminators:      "\x1b\n",
	VarSecondaryPromptPattern: "%M> ",
	VarSuggestionsMinBufSize:  1,
	VarTabWidth:               4,
	VarWordChars:              "*?_-.[]~=/&;!#$%^(){}<>",
}

// Variable returns the value of a string-keyed variable, or its default if
// unset.
func (r *Reader) Variable(name string) interface{} {
	if v, ok := r.vars[name]; ok {
		return v
	}
	return defaultVars[name]
}

// SetVariable sets a string-keyed variable.
func (r *Reader) SetVariable(name string, value interface{}) {
	r.vars[name] = value
}

// Flag returns the value of a boolean option flag.
func (r *Reader) Flag(f Flag) bool {
	if v, ok := r.flags[f]; ok {
		return v
	}
	return defaultFlags[f]
}

// SetFlag sets a boolean option flag.
func (r *Reader) SetFlag(f Flag, on bool) {
	r.flags[f] = on
}

func (r *Reader) varInt(name string) int {
	switch v := r.Variable(name).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (r *Reader) varString(name string) string {
	if s, ok := r.Variable(name).(string); ok {
		return s
	}
	return ""
}
