package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 스냅샷, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2
//          ↘ S3
//   Ingest  Efficiency  Pfaffl / Polysome

// Stage represents a pipeline stage
type Stage string

const (
	// StageIngest S0: 원시 Ct 테이블 정리
	// 책임: 스키마 검출, 파싱, Ct_mean / Ct_sem 계산
	// 위치: internal/s0_ingest/
	StageIngest Stage = "S0_INGEST"

	// StageEfficiency S1: 프라이머 효율
	// 책임: log10(dilution) vs Ct 회귀, slope → efficiency %
	// 위치: internal/s1_efficiency/
	StageEfficiency Stage = "S1_EFFICIENCY"

	// StagePfaffl S2: 상대 정량 (Pfaffl)
	// 책임: control baseline, ΔCt, 효율 보정 발현 비율
	// 위치: internal/s2_pfaffl/
	StagePfaffl Stage = "S2_PFAFFL"

	// StagePolysome S3: 폴리솜 분획 분포
	// 책임: fraction 1 대비 ΔCt, 2^ΔCt, 분획별 %
	// 위치: internal/s3_polysome/
	StagePolysome Stage = "S3_POLYSOME"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageIngest:
		return "S0"
	case StageEfficiency:
		return "S1"
	case StagePfaffl:
		return "S2"
	case StagePolysome:
		return "S3"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns the stages in execution order
func AllStages() []Stage {
	return []Stage{StageIngest, StageEfficiency, StagePfaffl, StagePolysome}
}
