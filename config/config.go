package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Game holds every tunable the engine recognizes. Defaults are the
// canonical value set; any field can be overridden through the environment
// (or a .env file).
type Game struct {
	Addr    string
	DataDir string

	MapWidth    float64
	MapHeight   float64
	InitialSize float64

	MinSizeToEatRatio    float64
	EatSizeMultiplier    float64
	ExperienceMultiplier int
	CoinMultiplier       int

	LevelUpExperienceThreshold int
	LevelUpBonus               int
	EndGameCoins               int

	MoveRateLimit time.Duration

	FoodSize             float64
	FoodCountTarget      int
	FoodSpawnInterval    time.Duration
	FoodGrowthIncrement  float64
	FoodExperienceReward int
}

func Default() Game {
	return Game{
		Addr:    ":8080",
		DataDir: "data",

		MapWidth:    1000,
		MapHeight:   1000,
		InitialSize: 10,

		MinSizeToEatRatio:    1.2,
		EatSizeMultiplier:    0.5,
		ExperienceMultiplier: 10,
		CoinMultiplier:       5,

		LevelUpExperienceThreshold: 100,
		LevelUpBonus:               20,
		EndGameCoins:               50,

		MoveRateLimit: 50 * time.Millisecond,

		FoodSize:             1,
		FoodCountTarget:      100,
		FoodSpawnInterval:    time.Second,
		FoodGrowthIncrement:  0.5,
		FoodExperienceReward: 5,
	}
}

// Load reads .env if present, then applies environment overrides on top of
// the defaults.
func Load() Game {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}

	g := Default()
	g.Addr = envString("ADDR", g.Addr)
	g.DataDir = envString("DATA_DIR", g.DataDir)
	g.MapWidth = envFloat("MAP_WIDTH", g.MapWidth)
	g.MapHeight = envFloat("MAP_HEIGHT", g.MapHeight)
	g.InitialSize = envFloat("INITIAL_SIZE", g.InitialSize)
	g.MinSizeToEatRatio = envFloat("MIN_SIZE_TO_EAT", g.MinSizeToEatRatio)
	g.EatSizeMultiplier = envFloat("EAT_SIZE_MULTIPLIER", g.EatSizeMultiplier)
	g.ExperienceMultiplier = envInt("EXPERIENCE_MULTIPLIER", g.ExperienceMultiplier)
	g.CoinMultiplier = envInt("COIN_MULTIPLIER", g.CoinMultiplier)
	g.LevelUpExperienceThreshold = envInt("LEVEL_UP_EXPERIENCE", g.LevelUpExperienceThreshold)
	g.LevelUpBonus = envInt("LEVEL_UP_BONUS", g.LevelUpBonus)
	g.EndGameCoins = envInt("GAME_END_COINS", g.EndGameCoins)
	g.MoveRateLimit = envMillis("MOVE_RATE_LIMIT_MS", g.MoveRateLimit)
	g.FoodSize = envFloat("FOOD_SIZE", g.FoodSize)
	g.FoodCountTarget = envInt("FOOD_COUNT_TARGET", g.FoodCountTarget)
	g.FoodSpawnInterval = envMillis("FOOD_SPAWN_INTERVAL_MS", g.FoodSpawnInterval)
	g.FoodGrowthIncrement = envFloat("FOOD_GROWTH_INCREMENT", g.FoodGrowthIncrement)
	g.FoodExperienceReward = envInt("FOOD_XP_REWARD", g.FoodExperienceReward)
	return g
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: ignoring %s=%q: %v", key, v, err)
		return def
	}
	return f
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: ignoring %s=%q: %v", key, v, err)
		return def
	}
	return n
}

func envMillis(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: ignoring %s=%q: %v", key, v, err)
		return def
	}
	return time.Duration(n) * time.Millisecond
}
