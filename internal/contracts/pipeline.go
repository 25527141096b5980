package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 경고, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름 (종목별):
//   S0 → S1 → S2 → S3
//   Load  RollCalendar  MultiplePrices  AdjustedPrices

// Stage represents a pipeline stage
type Stage string

const (
	// StageLoad S0: 월물별 가격 로드
	// 책임: 소스에서 월물별 OHLCV 읽기, 정제
	// 위치: internal/source/, internal/store/
	StageLoad Stage = "S0_LOAD"

	// StageRollCalendar S1: 롤 캘린더 생성
	// 책임: hold cycle 필터, 롤 날짜 산출/보정, carry 월물 결정
	// 위치: internal/rollcal/
	StageRollCalendar Stage = "S1_ROLL_CALENDAR"

	// StageMultiplePrices S2: PRICE/FORWARD/CARRY 시계열 구성
	// 위치: internal/multiple/
	StageMultiplePrices Stage = "S2_MULTIPLE_PRICES"

	// StageAdjustedPrices S3: 백어드저스트 연속 시계열
	// 위치: internal/adjusted/
	StageAdjustedPrices Stage = "S3_ADJUSTED_PRICES"

	// StagePersist 결과 저장 (파이프라인 외부 협력자)
	StagePersist Stage = "S4_PERSIST"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageLoad:
		return "S0"
	case StageRollCalendar:
		return "S1"
	case StageMultiplePrices:
		return "S2"
	case StageAdjustedPrices:
		return "S3"
	case StagePersist:
		return "S4"
	default:
		return "UNKNOWN"
	}
}

// Description returns a short description of the stage
func (s Stage) Description() string {
	switch s {
	case StageLoad:
		return "월물 가격 로드"
	case StageRollCalendar:
		return "롤 캘린더 생성"
	case StageMultiplePrices:
		return "멀티플 가격 구성"
	case StageAdjustedPrices:
		return "연속 조정 가격"
	case StagePersist:
		return "결과 저장"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageLoad,
		StageRollCalendar,
		StageMultiplePrices,
		StageAdjustedPrices,
		StagePersist,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// RunStatus distinguishes a failed instrument from one with no data yet
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
	RunNoData  RunStatus = "no_data"
)

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    int64                  `json:"duration_ms"`
	Error       string                 `json:"error,omitempty"`
	Warnings    int                    `json:"warnings"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
