package featureflag

type Flag string

const (
	FlagDisableSessionState                  Flag = "DISABLE_SESSION_STATE"
	FlagDisableParticipantJoinBroadcast      Flag = "DISABLE_PARTICIPANT_JOIN_BROADCAST"
	FlagDisableParticipantLeaveBroadcast     Flag = "DISABLE_PARTICIPANT_LEAVE_BROADCAST"
	FlagDisableEntityAddBroadcast            Flag = "DISABLE_ENTITY_ADD_BROADCAST"
	FlagDisableEntityDeleteBroadcast         Flag = "DISABLE_ENTITY_DELETE_BROADCAST"
	FlagDisableEntityUpdatePositionBroadcast Flag = "DISABLE_ENTITY_UPDATE_POSITION_BROADCAST"
	FlagDisableCustomMessageBroadcast        Flag = "DISABLE_CUSTOM_MESSAGE_BROADCAST"
	FlagDisableCameraStateResponse           Flag = "DISABLE_CAMERA_STATE_RESPONSE"

	// Region queries only descend into the child octant the query bound
	// lies in.
	FlagOctreeSingleChildQuery Flag = "OCTREE_SINGLE_CHILD_QUERY"
)
