package models

type SkillBucket string

const (
	SkillBucketBeginner     SkillBucket = "beginner"
	SkillBucketIntermediate SkillBucket = "intermediate"
	SkillBucketAdvanced     SkillBucket = "advanced"
	SkillBucketExpert       SkillBucket = "expert"
)

// Lower bounds on the 0-10 club rating scale.
const (
	intermediateFloor = 4
	advancedFloor     = 7
	expertFloor       = 9
)

// BucketFor maps a skill rating to its coarse bucket.
func BucketFor(rating int) SkillBucket {
	switch {
	case rating >= expertFloor:
		return SkillBucketExpert
	case rating >= advancedFloor:
		return SkillBucketAdvanced
	case rating >= intermediateFloor:
		return SkillBucketIntermediate
	default:
		return SkillBucketBeginner
	}
}
