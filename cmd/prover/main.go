// Package main builds an aggregation batch from the event archive, produces
// the attestation for it and either prints it or submits it to a hookd
// endpoint. With --prove it additionally compiles the aggregation circuit and
// runs a full prove/verify cycle over the batch, fingerprinting the generated
// verifying key.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"univip-hook/internal/circuit"
	"univip-hook/internal/config"
	"univip-hook/internal/domain"
	"univip-hook/internal/prover"
	chstore "univip-hook/internal/storage/clickhouse"
	"univip-hook/internal/storage/migrations"
)

func main() {
	cfg := config.Load()

	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	poolAddr := flag.String("pool", cfg.PoolAddr.Hex(), "Pool manager contract address")
	hookAddr := flag.String("hook", cfg.HookAddr.Hex(), "Hook contract address")
	poolID := flag.String("pool-id", "", "Pool identifier (32-byte hex)")
	epoch := flag.Uint("epoch", 0, "Attestation epoch")
	startBlock := flag.Uint64("start", 0, "Range start block (exclusive)")
	endBlock := flag.Uint64("end", 0, "Range end block (exclusive)")
	tiersFlag := flag.String("tiers", "", "Tier schedule as min:bps pairs, ascending, e.g. 1000:1000,5000:3000")
	vkFile := flag.String("vk-file", "", "Verifying key file to fingerprint the attestation with")
	postURL := flag.String("post-url", "", "hookd base URL to submit the attestation to (prints hex when empty)")
	prove := flag.Bool("prove", false, "Compile the circuit and run a prove/verify cycle over the batch")
	flag.Parse()

	logger := log.New(os.Stdout, "[prover] ", log.LstdFlags)

	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}
	if *endBlock <= *startBlock {
		logger.Fatal("--end must be greater than --start")
	}
	if !*prove && *vkFile == "" {
		logger.Fatal("--vk-file is required unless --prove generates the key")
	}

	tiers, err := parseTiers(*tiersFlag)
	if err != nil {
		logger.Fatalf("Invalid --tiers: %v", err)
	}

	ctx := context.Background()

	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to archive: %v", err)
	}
	defer conn.Close()

	builder := prover.NewBatchBuilder(chstore.NewEventArchive(conn))
	batch, err := builder.Build(ctx,
		common.HexToAddress(*poolAddr), common.HexToAddress(*hookAddr),
		common.HexToHash(*poolID), uint32(*epoch), *startBlock, *endBlock, tiers)
	if err != nil {
		logger.Fatalf("Failed to build batch: %v", err)
	}

	vk, err := loadVerifyingKey(logger, *vkFile, *prove, batch)
	if err != nil {
		logger.Fatalf("Verifying key: %v", err)
	}

	producer := prover.NewProducer(vk)
	att := producer.Produce(batch)

	logger.Printf("Attestation epoch=%d fingerprint=%s payload=%d bytes",
		batch.Epoch, att.VKFingerprint.Hex(), len(att.Payload))

	if *postURL == "" {
		fmt.Printf("fingerprint: %s\n", att.VKFingerprint.Hex())
		fmt.Printf("payload: %s\n", hexutil.Encode(att.Payload))
		return
	}

	if err := submit(*postURL, att); err != nil {
		logger.Fatalf("Submit failed: %v", err)
	}
	logger.Printf("Attestation submitted to %s", *postURL)
}

// parseTiers parses up to five ascending min:bps pairs.
func parseTiers(s string) (domain.TierConfig, error) {
	var cfg domain.TierConfig
	for i := range cfg {
		cfg[i].MinVolume = new(big.Int)
	}
	if s == "" {
		return cfg, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) > domain.TierCount {
		return cfg, fmt.Errorf("at most %d tiers", domain.TierCount)
	}
	for i, part := range parts {
		fields := strings.SplitN(part, ":", 2)
		if len(fields) != 2 {
			return cfg, fmt.Errorf("tier %q: want min:bps", part)
		}
		min, ok := new(big.Int).SetString(fields[0], 10)
		if !ok || min.Sign() < 0 {
			return cfg, fmt.Errorf("tier %q: bad minimum volume", part)
		}
		var bps uint16
		if _, err := fmt.Sscanf(fields[1], "%d", &bps); err != nil || bps > domain.MaxDiscountBps {
			return cfg, fmt.Errorf("tier %q: bad discount bps", part)
		}
		cfg[i] = domain.Tier{MinVolume: min, DiscountBps: bps}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadVerifyingKey reads the key from disk, or generates one by compiling the
// circuit and running a prove/verify cycle over the batch.
func loadVerifyingKey(logger *log.Logger, vkFile string, prove bool, batch *domain.Batch) ([]byte, error) {
	if !prove {
		return os.ReadFile(vkFile)
	}

	start := time.Now()
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit.VolumeTierCircuit{})
	if err != nil {
		return nil, fmt.Errorf("compile circuit: %w", err)
	}
	logger.Printf("Circuit compiled in %s (%d constraints)", time.Since(start), ccs.GetNbConstraints())

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	assignment, err := circuit.NewAssignment(batch)
	if err != nil {
		return nil, fmt.Errorf("build witness: %w", err)
	}
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("new witness: %w", err)
	}

	start = time.Now()
	proof, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		return nil, fmt.Errorf("prove: %w", err)
	}
	public, err := witness.Public()
	if err != nil {
		return nil, fmt.Errorf("public witness: %w", err)
	}
	if err := groth16.Verify(proof, vk, public); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	logger.Printf("Proof produced and verified in %s", time.Since(start))

	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize verifying key: %w", err)
	}
	if vkFile != "" {
		if err := os.WriteFile(vkFile, buf.Bytes(), 0o600); err != nil {
			return nil, fmt.Errorf("write verifying key: %w", err)
		}
		logger.Printf("Verifying key written to %s", vkFile)
	}
	return buf.Bytes(), nil
}

// submit posts the attestation to hookd.
func submit(baseURL string, att *domain.Attestation) error {
	body, err := json.Marshal(map[string]string{
		"fingerprint": att.VKFingerprint.Hex(),
		"payload":     hexutil.Encode(att.Payload),
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(strings.TrimRight(baseURL, "/")+"/v1/attestations", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hookd returned %s", resp.Status)
	}
	return nil
}
