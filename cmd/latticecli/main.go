package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/leekchan/accounting"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

var rootCmd = &cobra.Command{
	Use:   "latticecli",
	Short: "CRR binomial lattice option pricer",
}

var priceCmd = &cobra.Command{
	Use:   "price --spot 100 --strike 100",
	Short: "Price a European option on a CRR binomial lattice",
	Run: func(cmd *cobra.Command, args []string) {
		params, err := paramsFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		steps, err := cmd.Flags().GetInt("steps")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fullTrees, err := cmd.Flags().GetBool("full-trees")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		params.Steps = steps
		params.OutputMode = domain.OutputModeValueOnly
		if fullTrees {
			params.OutputMode = domain.OutputModeFullTrees
		}

		outcome, err := domain.PriceBinomial(params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ac := accounting.Accounting{Symbol: "$", Precision: 2}
		fmt.Printf("Option value: %s (%.8f)\n", ac.FormatMoney(outcome.Value), outcome.Value)
		if outcome.ArbitrageWarning {
			fmt.Println("Warning: risk neutral probability outside [0,1], model assumptions violated")
		}

		fmt.Println()
		renderConstants(outcome.Constants)

		if fullTrees {
			fmt.Println()
			renderGrid("Underlying price tree:", outcome.PriceGrid)
			fmt.Println()
			renderGrid("Option value tree:", outcome.OptionGrid)
		}
	},
}

var convergeCmd = &cobra.Command{
	Use:   "converge --spot 100 --strike 100 --steps-seq 10,100,1000",
	Short: "Compare lattice prices against the Black-Scholes value for increasing step counts",
	Run: func(cmd *cobra.Command, args []string) {
		params, err := paramsFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		stepsSeq, err := cmd.Flags().GetIntSlice("steps-seq")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		report, err := domain.AnalyzeConvergence(params, stepsSeq)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Steps", "Binomial", "Abs Error"})
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		table.SetColumnSeparator("")
		for _, point := range report.Points {
			table.Append([]string{
				strconv.Itoa(point.Steps),
				fmt.Sprintf("%.8f", point.BinomialValue),
				fmt.Sprintf("%.8f", point.AbsoluteError),
			})
		}
		table.Render()

		fmt.Printf("Black-Scholes value: %.8f\n", report.AnalyticValue)
		fmt.Printf("Mean error: %.8f\n", report.MeanError)
		fmt.Printf("Max error: %.8f\n", report.MaxError)
		fmt.Printf("Monotone decreasing: %v\n", report.MonotoneDecreasing)
	},
}

// paramsFromFlags 解析两个子命令共用的市场参数
// 未显式给出 --rate 时回退到 PRICING_RISK_FREE_RATE 环境变量
func paramsFromFlags(cmd *cobra.Command) (domain.PricingParameters, error) {
	optionType, err := cmd.Flags().GetString("type")
	if err != nil {
		return domain.PricingParameters{}, err
	}
	maturity, err := cmd.Flags().GetFloat64("maturity")
	if err != nil {
		return domain.PricingParameters{}, err
	}
	spot, err := cmd.Flags().GetFloat64("spot")
	if err != nil {
		return domain.PricingParameters{}, err
	}
	volatility, err := cmd.Flags().GetFloat64("volatility")
	if err != nil {
		return domain.PricingParameters{}, err
	}
	rate, err := cmd.Flags().GetFloat64("rate")
	if err != nil {
		return domain.PricingParameters{}, err
	}
	strike, err := cmd.Flags().GetFloat64("strike")
	if err != nil {
		return domain.PricingParameters{}, err
	}

	if !cmd.Flags().Changed("rate") {
		if env := os.Getenv("PRICING_RISK_FREE_RATE"); env != "" {
			if v, parseErr := strconv.ParseFloat(env, 64); parseErr == nil {
				rate = v
			}
		}
	}

	return domain.PricingParameters{
		Maturity:     maturity,
		SpotPrice:    spot,
		Volatility:   volatility,
		RiskFreeRate: rate,
		StrikePrice:  strike,
		OptionType:   domain.OptionType(optionType),
	}, nil
}

func renderConstants(constants domain.DerivedConstants) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Delta T", "Up", "Down", "Prob Up"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetColumnSeparator("")
	table.Append([]string{
		fmt.Sprintf("%.6f", constants.DeltaT),
		fmt.Sprintf("%.6f", constants.UpFactor),
		fmt.Sprintf("%.6f", constants.DownFactor),
		fmt.Sprintf("%.6f", constants.RiskNeutralProb),
	})
	table.Render()
}

// renderGrid 以行 j、列 i 渲染三角网格，j > i 的格子为空
func renderGrid(title string, grid [][]float64) {
	fmt.Println(title)

	n := len(grid) - 1
	table := tablewriter.NewWriter(os.Stdout)
	header := []string{"j\\i"}
	for i := 0; i <= n; i++ {
		header = append(header, strconv.Itoa(i))
	}
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetColumnSeparator("")

	for j := 0; j <= n; j++ {
		row := []string{strconv.Itoa(j)}
		for i := 0; i <= n; i++ {
			if j > i {
				row = append(row, "")
			} else {
				row = append(row, fmt.Sprintf("%.4f", grid[j][i]))
			}
		}
		table.Append(row)
	}
	table.Render()
}

func addMarketFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", "CALL", "Option type: CALL or PUT.")
	cmd.Flags().Float64("maturity", 1.0, "Time to maturity in years.")
	cmd.Flags().Float64("spot", 0, "Spot price of the underlying.")
	cmd.Flags().Float64("volatility", 0.2, "Annualized volatility.")
	cmd.Flags().Float64("rate", 0.05, "Annualized risk free rate.")
	cmd.Flags().Float64("strike", 0, "Strike price.")
	cmd.MarkFlagRequired("spot")
	cmd.MarkFlagRequired("strike")
}

func main() {
	// .env 可选，缺失时直接使用进程环境
	_ = godotenv.Load()

	addMarketFlags(priceCmd)
	priceCmd.Flags().Int("steps", 100, "Number of lattice steps.")
	priceCmd.Flags().Bool("full-trees", false, "Print the full price and option trees.")

	addMarketFlags(convergeCmd)
	convergeCmd.Flags().IntSlice("steps-seq", []int{10, 100, 1000}, "Step counts to evaluate.")

	rootCmd.AddCommand(priceCmd, convergeCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
