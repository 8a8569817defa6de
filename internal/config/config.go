// Package config centralizes the tunable constants shared by every core
// package. There is no environment variable or flag surface here: the core
// never reads its own configuration from the outside world, only the
// simulation/CLI layer does.
package config

const (
	// ShardSize is the hard invariant size of a WeightShard, header and
	// payload combined.
	ShardSize = 4096

	// ShardHeaderSize is the on-wire and on-flash header size in bytes.
	ShardHeaderSize = 12

	// ShardPayloadSize is the number of int8 weights carried per shard.
	ShardPayloadSize = ShardSize - ShardHeaderSize

	// MaxShardsInRAM (K) is the number of shards resident in the engine at once.
	MaxShardsInRAM = 4

	// TotalModelShards is the full sharded model's shard count.
	TotalModelShards = 64

	// FeatureVectorSize is the exact byte width of the engine's feature vector.
	FeatureVectorSize = 16

	// TargetVectorSize is the exact byte width of the prediction target vector.
	TargetVectorSize = 8

	// GradientCount is the number of gradients accumulated per micro-step,
	// equal to FeatureVectorSize.
	GradientCount = FeatureVectorSize

	// LearningRate is the reference federated SGD step size; platforms may
	// override it.
	LearningRate = 0.001

	// GossipIntervalMS is the minimum spacing between shard broadcasts.
	GossipIntervalMS = 5000

	// BLEGuardUS is the microsecond margin reserved before the next radio event.
	BLEGuardUS = 2000

	// AITimeslotUS caps any single scheduler grant.
	AITimeslotUS = 5000

	// TempThrottleC is the temperature at which throttling begins.
	TempThrottleC = 55

	// TempShutdownC is the temperature at which all AI tasks halt.
	TempShutdownC = 70

	// ThermalSampleInterval is how many run_slice calls elapse between
	// temperature samples.
	ThermalSampleInterval = 100

	// MaxNeighbors caps the mesh neighbor table.
	MaxNeighbors = 16

	// MaxPendingFragments caps the concurrently in-flight reassembly slots.
	MaxPendingFragments = 4

	// FragmentSize is the mesh MTU-sized chunk used to fragment a shard.
	FragmentSize = 256

	// DedupRingSize is the number of (src, seq) pairs remembered for
	// duplicate suppression.
	DedupRingSize = 16

	// MaxTasks caps the scheduler's task table.
	MaxTasks = 8

	// TicksPerMicrosecond is the reference part's tick rate (16 MHz / 1e6).
	TicksPerMicrosecond = 16

	// TrainBudgetFloorUS is the minimum budget train_step requires to run.
	TrainBudgetFloorUS = 1000

	// SamplesPerLocalUpdate is how many accumulated gradient samples trigger
	// an apply_gradient step.
	SamplesPerLocalUpdate = 10

	// FlashBaseOffset is the base address of the weight shard region.
	FlashBaseOffset = 0x40000

	// FlashSectorHeaderSize is the on-flash SectorHeader size in bytes.
	FlashSectorHeaderSize = 12

	// FlashSectorMagic identifies a valid sector header.
	FlashSectorMagic = 0x504C4E01

	// FlashSectorSize is the erase/write unit backing one half of a shard's
	// ping-pong pair: the SectorHeader plus one full shard image.
	FlashSectorSize = FlashSectorHeaderSize + ShardSize

	// GossipHeaderSize is the on-wire GossipHeader size in bytes.
	GossipHeaderSize = 6

	// FragmentInfoSize is the on-wire FragmentInfo sub-payload size.
	FragmentInfoSize = 4

	// HeartbeatPayloadSize is the on-wire HeartbeatPayload size.
	HeartbeatPayloadSize = 8

	// GossipIntervalTicks is GossipIntervalMS expressed in host ticks, for
	// comparison against the tick-domain last_gossip_tick.
	GossipIntervalTicks = GossipIntervalMS * 1000 * TicksPerMicrosecond
)
